package heapqueue

import (
	"cmp"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// verifyHeap fails the test if the occupied prefix of q violates the heap
// invariant.
func verifyHeap[T any](t *testing.T, q *Queue[T]) {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	for k := 1; k < q.size; k++ {
		parent := (k - 1) / 2
		if q.compare(q.items[k], q.items[parent]) < 0 {
			t.Fatalf("heap invariant violated at slot %d: %v precedes parent %v", k, q.items[k], q.items[parent])
		}
	}
}

func TestSiftUp(t *testing.T) {
	t.Run("new smallest walks to the root", func(t *testing.T) {
		es := []int{10, 20, 30, 0}
		k := siftUp(3, 5, es, cmp.Compare)
		assert.Equal(t, 0, k)
		assert.Equal(t, []int{5, 10, 30, 20}, es)
	})

	t.Run("stays in place when parent precedes it", func(t *testing.T) {
		es := []int{10, 20, 30, 0}
		k := siftUp(3, 25, es, cmp.Compare)
		assert.Equal(t, 3, k)
		assert.Equal(t, []int{10, 20, 30, 25}, es)
	})

	t.Run("stops partway up", func(t *testing.T) {
		es := []int{1, 5, 9, 6, 7, 0}
		k := siftUp(5, 3, es, cmp.Compare)
		assert.Equal(t, 2, k)
		assert.Equal(t, []int{1, 5, 3, 6, 7, 9}, es)
	})
}

func TestSiftDown(t *testing.T) {
	t.Run("pulls the preceding child up", func(t *testing.T) {
		// Root removed from [1 5 3 8 6 4]; the last element 4 is the
		// candidate for slot 0 over the remaining five.
		es := []int{1, 5, 3, 8, 6, 0}
		k := siftDown(0, 4, es, 5, cmp.Compare)
		assert.Equal(t, 2, k)
		assert.Equal(t, []int{3, 5, 4, 8, 6}, es[:5])
	})

	t.Run("no-op when count is zero", func(t *testing.T) {
		var es []int
		k := siftDown(0, 42, es, 0, cmp.Compare)
		assert.Equal(t, 0, k)
	})

	t.Run("general start index", func(t *testing.T) {
		es := []int{1, 0, 3, 8, 6}
		k := siftDown(1, 9, es, 5, cmp.Compare)
		assert.Equal(t, 4, k)
		assert.Equal(t, []int{1, 6, 3, 8, 9}, es)
	})

	t.Run("candidate already precedes both children", func(t *testing.T) {
		es := []int{0, 5, 3, 8, 6}
		k := siftDown(0, 2, es, 5, cmp.Compare)
		assert.Equal(t, 0, k)
		assert.Equal(t, []int{2, 5, 3, 8, 6}, es)
	})
}

func TestHeapify(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	es := r.Perm(257)
	heapify(es, len(es), cmp.Compare)

	for k := 1; k < len(es); k++ {
		parent := (k - 1) / 2
		require.LessOrEqual(t, es[parent], es[k], "slot %d precedes its parent", k)
	}
	assert.Equal(t, 0, es[0])
}
