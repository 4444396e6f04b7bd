package heapqueue

// The backing store is a classic array-embedded binary heap: the children of
// slot k live at 2k+1 and 2k+2, its parent at (k-1)/2. The sift functions
// below restore the heap invariant after one slot has been vacated. They move
// displaced elements into the hole and write the candidate exactly once, at
// its final position, rather than swapping pairwise on the way.
//
// Both functions assume the caller holds the queue's lock for the duration of
// the call.

// siftUp inserts x into the subtree rooted above slot k, walking toward the
// root. Parents that should come after x are pulled down into the hole. The
// final slot index is returned.
func siftUp[T any](k int, x T, es []T, compare func(a, b T) int) int {
	for k > 0 {
		parent := (k - 1) / 2
		e := es[parent]
		if compare(x, e) >= 0 {
			break
		}
		es[k] = e
		k = parent
	}
	es[k] = x
	return k
}

// siftDown inserts x into the subtree rooted at slot k, walking toward the
// leaves. At each level the child that should come first is pulled up into
// the hole until neither child precedes x. Only the first n slots are heap
// members; siftDown is a no-op when n is zero. The final slot index is
// returned.
func siftDown[T any](k int, x T, es []T, n int, compare func(a, b T) int) int {
	if n == 0 {
		return k
	}
	half := n / 2 // slots >= half are leaves
	for k < half {
		child := 2*k + 1
		c := es[child]
		if right := child + 1; right < n && compare(es[right], c) < 0 {
			child = right
			c = es[child]
		}
		if compare(x, c) <= 0 {
			break
		}
		es[k] = c
		k = child
	}
	es[k] = x
	return k
}

// heapify establishes the heap invariant over es[:n] in O(n) by sifting down
// every non-leaf slot, deepest first.
func heapify[T any](es []T, n int, compare func(a, b T) int) {
	for i := n/2 - 1; i >= 0; i-- {
		siftDown(i, es[i], es, n, compare)
	}
}
