package pagequeue

import (
	"log"
	"sync"
)

// ───────────────────────────────────────────────────────────────────────────
// TryRemove — §4.3 step-by-step walk, §5 lock ordering, §7, §9
// ───────────────────────────────────────────────────────────────────────────

// TryRemove returns a page identifier or NoPage. The caller passes in the
// remove lock it already holds. lockHeld reports whether the caller still
// holds removeLock when TryRemove returns: it is false only when
// retiring the outgoing head node required deleting it through the page
// manager, in which case TryRemove released removeLock before making
// that call and did not reacquire it. This is mandatory (§5): acquiring
// the append lock inside the page manager while still holding the remove
// lock would invert the global lock order and can deadlock against a
// concurrent commit. §9 notes implementations may prefer to express this
// as a two-phase result instead of a hidden unlock; returning lockHeld is
// this module's version of that — the caller is told, not left to guess.
func (q *PageQueue) TryRemove(removeLock sync.Locker) (id PageID, lockHeld bool, err error) {
	for {
		if q.removeHeadID == NoPage {
			if q.removeStoppedID != q.barrier() {
				if err := q.resumeFromStopped(); err != nil {
					return NoPage, true, err
				}
				continue
			}
			return NoPage, true, nil
		}

		if q.removeHeadID == q.barrier() {
			// Nothing has been closed past the remove side's current
			// position yet. In normal mode that means no commit has
			// advanced append_head_id past it; in aggressive mode it
			// means no later append has rotated the tail past it either
			// (§3 invariant 3, §5).
			return NoPage, true, nil
		}

		if q.removeHeadStale {
			// The cached head buffer predates any drain into this node —
			// only possible for the bootstrap node (§3 lifecycle). The
			// check above already proved the node is closed now (the
			// barrier has moved past it, whether by commit or by a
			// reserve-queue rotation), so its on-disk content is final:
			// read it once before trusting removeHeadFirstPageID/cursor.
			buf, err := q.loadNode(q.removeHeadID)
			if err != nil {
				return NoPage, true, err
			}
			_, first := ReadNodeHeader(buf)
			q.removeHeadBuf = buf
			q.removeHeadFirstPageID = first
			q.removeCursor = NewPayloadCursor(buf, first)
			q.removeHeadStale = false
		}

		pageId := q.removeHeadFirstPageID
		if err := q.checkBounds(pageId); err != nil {
			return NoPage, true, err
		}
		q.removePageCount--

		if next, ok := q.removeCursor.Next(); ok {
			q.removeHeadFirstPageID = next
			return pageId, true, nil
		}

		// The current node's payload is exhausted. Advance (or stop at
		// the barrier) before retiring it.
		retiredID := q.removeHeadID
		nextID, _ := ReadNodeHeader(q.removeHeadBuf)
		barrier := q.barrier()
		q.removeNodeCount--

		if nextID == barrier {
			q.removeHeadID = NoPage
			q.removeStoppedID = nextID
		} else {
			buf, err := q.loadNode(nextID)
			if err != nil {
				return NoPage, true, err
			}
			_, first := ReadNodeHeader(buf)
			q.removeHeadID = nextID
			q.removeHeadFirstPageID = first
			q.removeHeadBuf = buf
			q.removeCursor = NewPayloadCursor(buf, first)
			q.removeHeadStale = false
		}

		removeLock.Unlock()
		if err := q.manager.DeletePage(retiredID, true); err != nil {
			return NoPage, false, err
		}
		return pageId, false, nil
	}
}

// resumeAt loads the node at id fresh from disk back into the cached head
// buffer, leaving the remove cursor positioned at that node's first
// identifier. Used when the remove side, having previously stopped at the
// barrier, finds on a later call that the barrier has since moved past
// its stop point (§4.3 step 1).
func (q *PageQueue) resumeAt(id PageID) error {
	buf, err := q.loadNode(id)
	if err != nil {
		return err
	}
	_, first := ReadNodeHeader(buf)
	q.removeHeadID = id
	q.removeStoppedID = NoPage
	q.removeHeadFirstPageID = first
	q.removeHeadBuf = buf
	q.removeCursor = NewPayloadCursor(buf, first)
	q.removeHeadStale = false
	return nil
}

// resumeFromStopped resumes from the node recorded in removeStoppedID.
func (q *PageQueue) resumeFromStopped() error {
	return q.resumeAt(q.removeStoppedID)
}

// checkBounds implements §7's corruption check and §9's open question: an
// out-of-bounds (or sentinel-zero) identifier is corruption on a normal
// queue, but is silently tolerated — with a one-time log record — on an
// aggressive queue, preserving the documented existing behavior rather
// than resolving the ambiguity either way.
func (q *PageQueue) checkBounds(id PageID) error {
	bad := id == NoPage || q.manager.IsPageOutOfBounds(id)
	if !bad {
		return nil
	}
	if q.cfg.Aggressive {
		if !q.loggedBoundsSkip {
			log.Printf("pagequeue: tolerating out-of-bounds page id %d on aggressive queue", id)
			q.loggedBoundsSkip = true
		}
		return nil
	}
	return corrupt("tryRemove: page id %d is out of bounds", id)
}
