package pagequeue

import "container/heap"

// ───────────────────────────────────────────────────────────────────────────
// AppendHeap
// ───────────────────────────────────────────────────────────────────────────
//
// AppendHeap is an in-memory min-heap of freshly appended page identifiers
// (§4.2). It backs PageQueue's append side: Insert absorbs new frees, and
// Drain empties it into a queue node's varint payload in non-decreasing
// order, which is what makes the delta encoding always non-negative.
//
// container/heap is the standard-library mechanism for exactly this shape
// (a priority queue over a slice); no third-party priority-queue package
// appears anywhere in the retrieval pack, so there is nothing to prefer
// over it here.
type AppendHeap struct {
	h idHeap
}

// NewAppendHeap creates an empty AppendHeap.
func NewAppendHeap() *AppendHeap {
	return &AppendHeap{}
}

// idHeap implements heap.Interface over a []PageID, ordered ascending.
type idHeap []PageID

func (h idHeap) Len() int            { return len(h) }
func (h idHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x interface{}) { *h = append(*h, x.(PageID)) }
func (h *idHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Len returns the number of identifiers currently held.
func (a *AppendHeap) Len() int { return a.h.Len() }

// Insert adds id to the heap.
func (a *AppendHeap) Insert(id PageID) {
	heap.Push(&a.h, id)
}

// Peek returns the current minimum without removing it.
func (a *AppendHeap) Peek() (PageID, bool) {
	if a.h.Len() == 0 {
		return 0, false
	}
	return a.h[0], true
}

// TryRemove removes and returns the current minimum without emitting it to
// a node. PageQueue.tryUnappend uses it to hand an identifier back (§4.2),
// and PageQueue.drainIntoTail uses it to take the seed FirstPageID of an
// empty tail node; the deltas themselves go through Drain.
func (a *AppendHeap) TryRemove() (PageID, bool) {
	if a.h.Len() == 0 {
		return 0, false
	}
	return heap.Pop(&a.h).(PageID), true
}

// EncodedSize returns the exact number of payload bytes required to encode
// every identifier currently in the heap as a delta sequence, the way
// Drain would emit them (the first identifier becomes a node's
// FirstPageID and costs nothing; every subsequent one costs UvarintLen of
// its delta from its predecessor). This is computed by copying and sorting
// the heap's backing slice rather than extracting from the live heap, so
// calling it has no observable effect.
func (a *AppendHeap) EncodedSize() int {
	n := a.h.Len()
	if n <= 1 {
		return 0
	}
	sorted := sortedCopy(a.h)
	size := 0
	for i := 1; i < len(sorted); i++ {
		size += UvarintLen(uint64(sorted[i] - sorted[i-1]))
	}
	return size
}

// ShouldDrain reports whether the heap's contents would no longer fit
// within payloadCapacity minus one varint slot of headroom (§4.2). The
// headroom reserves room for one identifier appended reentrantly while a
// drain triggered by this check is in progress (§5, invariant 7).
func (a *AppendHeap) ShouldDrain(payloadCapacity int) bool {
	reserved := payloadCapacity - maxVarintSlot
	if reserved < 0 {
		reserved = 0
	}
	return a.EncodedSize() > reserved
}

const maxVarintSlot = 10 // binary.MaxVarintLen64

// Drain repeatedly extracts the minimum and writes it into out[start:] as a
// varint delta from prev, stopping when the heap is empty or the next delta
// would not fit. It returns the new write offset and the last identifier
// written (the new baseline for a subsequent call against the same node).
// wrote reports how many identifiers were consumed.
func (a *AppendHeap) Drain(prev PageID, out []byte, start int) (offset int, last PageID, wrote int) {
	offset = start
	last = prev
	for {
		next, ok := a.Peek()
		if !ok {
			break
		}
		delta := uint64(next - last)
		n, fits := WriteDelta(out, offset, delta)
		if !fits {
			break
		}
		heap.Pop(&a.h)
		offset += n
		last = next
		wrote++
	}
	return offset, last, wrote
}

// sortedCopy returns a sorted copy of h without mutating it.
func sortedCopy(h idHeap) []PageID {
	out := make([]PageID, len(h))
	copy(out, h)
	// Small insertion sort avoids pulling in sort.Slice's reflection for
	// what is, by construction (§4.2's capacity reasoning), a small slice.
	for i := 1; i < len(out); i++ {
		v := out[i]
		j := i - 1
		for j >= 0 && out[j] > v {
			out[j+1] = out[j]
			j--
		}
		out[j+1] = v
	}
	return out
}
