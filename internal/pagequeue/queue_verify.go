package pagequeue

import (
	"fmt"
	"strings"
)

// ───────────────────────────────────────────────────────────────────────────
// VerifyPageRange / TraceRemovablePages — §4.3, §6, §8
// ───────────────────────────────────────────────────────────────────────────

// scramble is a bijective 64-bit mixer (the SplitMix64 finalizer) used to
// build a commutative hash over a set of identifiers: order-independent,
// so VerifyPageRange doesn't need the chain to be walked in any
// particular order, and collision-free enough for the set sizes a single
// queue will ever hold.
func scramble(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// VerifyPageRange walks the chain from remove_head_id (or, if exhausted,
// remove_stopped_id) up to but not including append_tail_id, accumulating
// a commutative hash and count over every payload identifier plus every
// in-range node identifier, and reports whether that matches the
// closed-open range [lo, hi) (§4.3).
func (q *PageQueue) VerifyPageRange(lo, hi PageID) (bool, error) {
	var gotHash, gotCount uint64

	id := q.removeHeadID
	if id == NoPage {
		id = q.removeStoppedID
	}

	for id != NoPage && id != q.appendTailID {
		buf, err := q.loadNode(id)
		if err != nil {
			return false, err
		}
		next, first := ReadNodeHeader(buf)

		if id >= lo && id < hi {
			gotHash += scramble(uint64(id))
			gotCount++
		}

		if first != NoPage {
			gotHash += scramble(uint64(first))
			gotCount++
		}
		cursor := NewPayloadCursor(buf, first)
		for {
			pid, ok := cursor.Next()
			if !ok {
				break
			}
			gotHash += scramble(uint64(pid))
			gotCount++
		}

		id = next
	}

	var wantHash uint64
	for p := lo; p < hi; p++ {
		wantHash += scramble(uint64(p))
	}
	wantCount := uint64(hi - lo)

	return gotHash == wantHash && gotCount == wantCount, nil
}

// TraceRemovablePages clears bits in the caller's bitset for every page
// and node reachable as free — the whole chain from the remove side
// through the live append tail inclusive (§4.3 "including the append
// head"). A bit already clear signals a page freed twice.
func (q *PageQueue) TraceRemovablePages(bitset Bitset) (uint64, error) {
	var cleared uint64

	clearBit := func(id PageID) error {
		if id == NoPage || uint64(id) >= bitset.Len() {
			return nil
		}
		if was := bitset.TestAndClear(uint64(id)); !was {
			return corrupt("traceRemovablePages: doubly freed page %d", id)
		}
		cleared++
		return nil
	}

	id := q.removeHeadID
	if id == NoPage {
		id = q.removeStoppedID
	}

	for id != NoPage {
		if err := clearBit(id); err != nil {
			return cleared, err
		}
		if id == q.appendTailID {
			break
		}

		buf, err := q.loadNode(id)
		if err != nil {
			return cleared, err
		}
		next, first := ReadNodeHeader(buf)
		if err := clearBit(first); err != nil {
			return cleared, err
		}
		cursor := NewPayloadCursor(buf, first)
		for {
			pid, ok := cursor.Next()
			if !ok {
				break
			}
			if err := clearBit(pid); err != nil {
				return cleared, err
			}
		}
		id = next
	}

	return cleared, nil
}

// Dump renders the queue's chain state, head to tail, node by node. It is
// debug tooling only — not part of the durable contract — grounded on
// the teacher's inspect.go concept of a human-readable structural dump.
func (q *PageQueue) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "PageQueue{aggressive=%v}\n", q.cfg.Aggressive)
	fmt.Fprintf(&b, "  remove: head=%d first=%d stopped=%d pages=%d nodes=%d\n",
		q.removeHeadID, q.removeHeadFirstPageID, q.removeStoppedID, q.removePageCount, q.removeNodeCount)
	fmt.Fprintf(&b, "  append: head=%d tail=%d pages=%d nodes=%d heapLen=%d draining=%v\n",
		q.appendHeadID, q.appendTailID, q.appendPageCount, q.appendNodeCount, q.appendHeap.Len(), q.drainInProgress)

	id := q.removeHeadID
	if id == NoPage {
		id = q.removeStoppedID
	}
	for id != NoPage {
		fmt.Fprintf(&b, "  node %d", id)
		if id == q.appendTailID {
			b.WriteString(" (tail)\n")
			break
		}
		buf, err := q.loadNode(id)
		if err != nil {
			fmt.Fprintf(&b, " <read error: %v>\n", err)
			break
		}
		next, first := ReadNodeHeader(buf)
		fmt.Fprintf(&b, " first=%d next=%d\n", first, next)
		id = next
	}
	return b.String()
}

// String implements fmt.Stringer via Dump, for convenient use in test
// failure messages and log lines.
func (q *PageQueue) String() string { return q.Dump() }
