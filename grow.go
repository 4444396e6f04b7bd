package heapqueue

import (
	"math"
	"runtime"
)

// grownCapacity returns the backing store length to allocate after oldCap.
// Small stores roughly double so early growth stays cheap relative to the
// copy; larger stores grow by half. The bool result is false when even a
// single additional slot would exceed the maximum slice length, meaning the
// queue cannot grow at all.
func grownCapacity(oldCap int) (int, bool) {
	growth := oldCap / 2
	if oldCap < 64 {
		growth = oldCap + 2
	}
	newCap := oldCap + growth
	if newCap < 0 {
		// Overflowed. Clamp to the maximum, unless not even oldCap+1
		// fits.
		if oldCap == math.MaxInt {
			return 0, false
		}
		newCap = math.MaxInt
	}
	return newCap, true
}

// grow replaces the backing store with a larger one. put calls it with the
// lock held and the store full; it returns with the lock held again, though
// the store may still be full if a competing grower's allocation was
// installed and consumed in the meantime, so put re-checks.
//
// The lock is dropped before allocating so a slow allocation does not stall
// every other queue operation. The growing gate admits one allocator at a
// time; a goroutine that loses the claim yields its turn once and retries
// from put's loop instead of blocking. The winner installs its store only if
// the live store is still the one it observed when it gave up the lock: a
// competing grower may have installed a newer store already, and an
// allocation sized against a stale capacity must never be installed. An
// abandoned allocation is left to the collector.
//
// When no larger store is possible grow panics with ErrTooLarge, with the
// gate cleared and the lock released. The queue is untouched and remains
// usable.
func (q *Queue[T]) grow() {
	observed := q.items
	q.mu.Unlock() // never hold the lock across the allocation

	var grown []T
	if q.growing.CompareAndSwap(false, true) {
		func() {
			defer q.growing.Store(false)
			newCap, ok := grownCapacity(len(observed))
			if !ok {
				panic(ErrTooLarge)
			}
			grown = make([]T, newCap)
		}()
	} else {
		// Another goroutine owns the gate; give it a turn to finish.
		runtime.Gosched()
	}

	q.mu.Lock()
	// Same first element address means the same store: observed pins its
	// array, so the address cannot be recycled while we hold it.
	if grown != nil && &q.items[0] == &observed[0] {
		copy(grown, q.items[:q.size])
		q.items = grown
		q.grows++
	}
}
