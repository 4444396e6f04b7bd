package heapqueue

import (
	"cmp"
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the initial backing store length used by constructors
// that do not take an explicit capacity.
const DefaultCapacity = 11

// ErrTooLarge is the panic value used when the queue cannot grow by even a
// single slot without exceeding the maximum slice length. The queue itself
// stays valid and usable; only the triggering insertion is abandoned.
var ErrTooLarge = errors.New("heapqueue: queue too large")

// Queue is an unbounded concurrent priority queue backed by a binary heap.
// Put never blocks for space; the backing store grows on demand. Take blocks
// until an element is available or its context is done, and TryTake never
// blocks at all. Elements that compare equal come out in unspecified order.
//
// The zero value is not usable; construct with New, NewWithCapacity,
// NewFunc, NewFuncWithCapacity or NewFromSlice.
type Queue[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond // signaled once per inserted element

	// items is the backing store: len(items) is the capacity, and the
	// occupied prefix items[:size] forms the heap. Growth replaces the
	// slice, it never resizes in place, so within a critical section the
	// store is read once and that reference used throughout.
	items []T
	size  int

	compare func(a, b T) int

	// growing is the allocation gate: it admits one store-sizing
	// allocation at a time without making anyone queue behind the slow
	// part. See grow.
	growing atomic.Bool

	// counters behind Stats; guarded by mu
	inserts  uint64
	removals uint64
	grows    uint64

	// onWait is a test hook invoked each time a Take call is about to
	// sleep.
	onWait func()
}

// New constructs an empty queue over T's natural ascending order: the
// smallest element is removed first. Reverse the comparison with NewFunc for
// largest-first behavior.
func New[T cmp.Ordered]() *Queue[T] {
	return NewFuncWithCapacity(cmp.Compare[T], DefaultCapacity)
}

// NewWithCapacity is New with an explicit initial capacity.
// It panics if capacity is not positive.
func NewWithCapacity[T cmp.Ordered](capacity int) *Queue[T] {
	return NewFuncWithCapacity(cmp.Compare[T], capacity)
}

// NewFunc constructs an empty queue ordered by compare, following the
// slices.SortFunc contract: compare returns a negative number when a should
// be removed before b. The comparison must describe a total order over the
// elements and is fixed for the life of the queue.
func NewFunc[T any](compare func(a, b T) int) *Queue[T] {
	return NewFuncWithCapacity(compare, DefaultCapacity)
}

// NewFuncWithCapacity is NewFunc with an explicit initial capacity.
// It panics if compare is nil or capacity is not positive.
func NewFuncWithCapacity[T any](compare func(a, b T) int, capacity int) *Queue[T] {
	if compare == nil {
		panic("heapqueue: nil compare function")
	}
	if capacity <= 0 {
		panic("heapqueue: capacity must be positive")
	}
	q := &Queue[T]{
		items:   make([]T, capacity),
		compare: compare,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// NewFromSlice constructs a queue over T's natural ascending order seeded
// with items. The heap is established in a single O(n) pass, cheaper than
// inserting the elements one by one. The slice is copied; the caller keeps
// ownership of it.
func NewFromSlice[T cmp.Ordered](items []T) *Queue[T] {
	capacity := len(items)
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	q := NewFuncWithCapacity(cmp.Compare[T], capacity)
	copy(q.items, items)
	q.size = len(items)
	heapify(q.items, q.size, q.compare)
	q.inserts = uint64(q.size)
	return q
}

// Put inserts the given elements. The queue is unbounded: Put blocks only
// for lock acquisition, never for space. Each inserted element wakes one
// blocked Take call.
//
// Elements are inserted one at a time, so a concurrent consumer may observe
// a multi-element Put partway through.
func (q *Queue[T]) Put(items ...T) {
	for _, x := range items {
		q.put(x)
	}
}

func (q *Queue[T]) put(x T) {
	q.mu.Lock()
	for q.size == len(q.items) {
		// Full. grow drops the lock while allocating, so re-check on
		// return: a competing grower may have been the one to enlarge
		// the store, or new space may already be taken.
		q.grow()
	}
	defer q.mu.Unlock() // released even if compare panics mid-sift
	n := q.size
	siftUp(n, x, q.items, q.compare)
	q.size = n + 1
	q.inserts++
	q.cond.Signal()
}

// TryTake removes and returns the first element per the queue's ordering.
// It never blocks; ok is false when the queue is empty.
func (q *Queue[T]) TryTake() (value T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.takeLocked()
}

// takeLocked removes and returns the root element.
// Must be called with mu held.
func (q *Queue[T]) takeLocked() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	es := q.items
	root := es[0]
	n := q.size - 1
	x := es[n]
	es[n] = zero // release the vacated slot
	q.size = n
	if n > 0 {
		siftDown(0, x, es, n, q.compare)
	}
	q.removals++
	return root, true
}

// Take removes and returns the first element per the queue's ordering,
// blocking while the queue is empty until an element arrives or ctx is done.
// On cancellation it returns the zero value and ctx's error, and the queue
// is left exactly as it was: a cancelled Take never consumes an element.
func (q *Queue[T]) Take(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	// Check context after acquiring lock
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if v, ok := q.takeLocked(); ok {
		return v, nil
	}

	// Single cancellation monitor goroutine for this Take call
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		case <-done:
		}
	}()

	for {
		// Re-test after every wake: the wake may be spurious, or another
		// waiter may have taken the element first.
		if err := ctx.Err(); err != nil {
			// This waiter may have absorbed a Signal meant for another;
			// pass it on before unwinding.
			q.cond.Signal()
			return zero, err
		}
		if v, ok := q.takeLocked(); ok {
			return v, nil
		}

		if q.onWait != nil {
			q.onWait()
		}
		q.cond.Wait()
	}
}

// Peek returns the first element per the queue's ordering without removing
// it; ok is false when the queue is empty. Layered schedulers that gate
// element visibility on the root (deadline queues and the like) use Peek to
// inspect without consuming.
func (q *Queue[T]) Peek() (value T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.size == 0 {
		return zero, false
	}
	return q.items[0], true
}

// Drain removes up to max elements without blocking, returned in priority
// order. A negative max drains everything. Returns nil when the queue is
// empty.
func (q *Queue[T]) Drain(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.size
	if max >= 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, _ := q.takeLocked()
		out = append(out, v)
	}
	return out
}

// RemoveFunc removes and returns the first queued element, in storage order,
// for which match returns true; ok is false when nothing matched. Interior
// removal re-places the displaced last element to keep the heap valid.
func (q *Queue[T]) RemoveFunc(match func(T) bool) (value T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	for i := 0; i < q.size; i++ {
		if !match(q.items[i]) {
			continue
		}
		removed := q.items[i]
		n := q.size - 1
		x := q.items[n]
		q.items[n] = zero
		q.size = n
		if i < n {
			// The displaced element may belong above or below slot i;
			// sift down first, and if it did not move, up.
			if siftDown(i, x, q.items, n, q.compare) == i {
				siftUp(i, x, q.items, q.compare)
			}
		}
		q.removals++
		return removed, true
	}
	return zero, false
}

// ContainsFunc reports whether any queued element matches.
func (q *Queue[T]) ContainsFunc(match func(T) bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := 0; i < q.size; i++ {
		if match(q.items[i]) {
			return true
		}
	}
	return false
}

// Clear removes every queued element. The backing store is kept, but the
// vacated slots are zeroed so the elements can be collected.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	for i := 0; i < q.size; i++ {
		q.items[i] = zero
	}
	q.removals += uint64(q.size)
	q.size = 0
}

// ToSlice returns a copy of the queued elements in storage order, which is
// heap order, not sorted order. The copy is a snapshot; the queue is not
// affected.
func (q *Queue[T]) ToSlice() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, q.size)
	copy(out, q.items[:q.size])
	return out
}

// Len returns the number of queued elements. The count is advisory the
// moment the lock is released; concurrent callers may change it immediately.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the current backing store length.
func (q *Queue[T]) Cap() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether the queue holds no elements.
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	// Size and Capacity describe the backing store at snapshot time.
	Size     int
	Capacity int

	// Inserts and Removals count completed element movements; Size always
	// equals Inserts - Removals.
	Inserts  uint64
	Removals uint64

	// Grows counts installed backing store replacements. Allocations that
	// lost the install race are not counted.
	Grows uint64
}

// Stats returns a snapshot of the queue's counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Size:     q.size,
		Capacity: len(q.items),
		Inserts:  q.inserts,
		Removals: q.removals,
		Grows:    q.grows,
	}
}
