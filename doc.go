// Package heapqueue provides an unbounded, concurrency-safe priority queue
// backed by a growable binary heap.
//
// A Queue hands out its elements smallest-first under the ordering fixed at
// construction: the natural order of the element type (New), or an explicit
// comparison function (NewFunc). Reversing the comparison turns the queue
// into a largest-first queue. Ties come out in unspecified order; this is a
// priority queue, not a FIFO.
//
// Producers call Put, which never blocks for space: when the backing store
// fills up it is replaced with a larger one, and the allocation happens
// outside the queue's lock so other goroutines are not stalled behind it.
// Consumers call TryTake for a non-blocking attempt, Take to block until an
// element arrives or a context is cancelled, and Peek to inspect the front
// element without consuming it.
//
//	q := heapqueue.New[int]()
//	q.Put(5, 3, 8, 1)
//	v, ok := q.TryTake() // 1, true
//
// All methods are safe for concurrent use by any number of goroutines.
package heapqueue
