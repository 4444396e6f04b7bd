package heapqueue

import (
	"math"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrownCapacity(t *testing.T) {
	testCases := []struct {
		name   string
		oldCap int
		want   int
		ok     bool
	}{
		{name: "minimal store", oldCap: 1, want: 4, ok: true},
		{name: "default store", oldCap: 11, want: 24, ok: true},
		{name: "last of the small stores", oldCap: 63, want: 128, ok: true},
		{name: "first of the large stores", oldCap: 64, want: 96, ok: true},
		{name: "large store grows by half", oldCap: 1000, want: 1500, ok: true},
		{name: "overflow clamps to the maximum", oldCap: math.MaxInt - 10, want: math.MaxInt, ok: true},
		{name: "no growth possible at the maximum", oldCap: math.MaxInt, want: 0, ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := grownCapacity(tc.oldCap)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
				assert.Greater(t, got, tc.oldCap, "growth must enlarge the store")
			}
		})
	}
}

// growthSteps returns the number of installs needed to take a store from
// capacity from to at least capacity to. Installed capacities always follow
// this chain, so an observed final capacity pins the exact install count.
func growthSteps(t *testing.T, from, to int) int {
	t.Helper()
	steps := 0
	for c := from; c < to; steps++ {
		next, ok := grownCapacity(c)
		require.True(t, ok)
		c = next
	}
	return steps
}

func TestQueue_Growth(t *testing.T) {
	t.Run("capacity two plus three inserts", func(t *testing.T) {
		q := NewWithCapacity[int](2)
		q.Put(3, 1, 2)

		assert.GreaterOrEqual(t, q.Cap(), 3)
		assert.Equal(t, []int{1, 2, 3}, q.Drain(-1))
	})

	t.Run("preserves elements across many growth steps", func(t *testing.T) {
		const n = 500
		r := rand.New(rand.NewSource(3))
		input := r.Perm(n)

		grown := NewWithCapacity[int](2)
		baseline := NewWithCapacity[int](n) // never grows
		for _, v := range input {
			grown.Put(v)
			baseline.Put(v)
		}

		assert.GreaterOrEqual(t, grown.Cap(), n)
		assert.Equal(t, uint64(0), baseline.Stats().Grows)
		verifyHeap(t, grown)

		// Same input, same extraction order, with or without growth.
		assert.Equal(t, baseline.Drain(-1), grown.Drain(-1))
	})

	t.Run("installs exactly one store per step", func(t *testing.T) {
		q := NewWithCapacity[int](2)
		for i := 0; i < 100; i++ {
			q.Put(i)
		}

		s := q.Stats()
		assert.Equal(t, uint64(growthSteps(t, 2, s.Capacity)), s.Grows)
		assert.False(t, q.growing.Load(), "the gate must be idle between calls")
	})
}

func TestQueue_ConcurrentGrowth(t *testing.T) {
	const (
		goroutines = 8
		perG       = 500
	)
	total := goroutines * perG

	q := NewWithCapacity[int](2)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				q.Put(g*perG + i)
			}
		}(g)
	}
	wg.Wait()

	s := q.Stats()
	assert.Equal(t, total, s.Size)
	assert.Equal(t, uint64(total), s.Inserts)
	assert.GreaterOrEqual(t, s.Capacity, total)
	assert.False(t, q.growing.Load())

	// Competing growers may allocate redundantly, but only one store per
	// necessary capacity step is ever installed.
	assert.Equal(t, uint64(growthSteps(t, 2, s.Capacity)), s.Grows)

	verifyHeap(t, q)

	// No insertion was lost or duplicated on the way.
	want := make([]int, total)
	for i := range want {
		want[i] = i
	}
	drained := q.Drain(-1)
	assert.True(t, slices.IsSorted(drained))
	assert.Equal(t, want, drained)
}
