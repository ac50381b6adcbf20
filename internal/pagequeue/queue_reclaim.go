package pagequeue

import "sync"

// ───────────────────────────────────────────────────────────────────────────
// Reclaim — §4.3, used to dispose of a reserve list during shrink
// ───────────────────────────────────────────────────────────────────────────

// Reclaim drains this queue entirely, handing every identifier at most
// upperBound back to the page manager with recycle propagated. It is
// legal only on a reserve queue in aggressive mode (§4.3).
func (q *PageQueue) Reclaim(removeLock sync.Locker, upperBound PageID, recycle bool) error {
	if !q.cfg.Aggressive {
		return contractViolation("reclaim: queue is not an aggressive reserve queue")
	}

	dispose := func(id PageID) error {
		if id > upperBound {
			return nil
		}
		return q.manager.DeletePage(id, recycle)
	}

	for {
		if id := q.tryUnappend(); id != NoPage {
			if err := dispose(id); err != nil {
				return err
			}
			continue
		}

		removeLock.Lock()
		id, lockHeld, err := q.TryRemove(removeLock)
		if lockHeld {
			removeLock.Unlock()
		}
		if err != nil {
			return err
		}
		if id == NoPage {
			break
		}
		if err := dispose(id); err != nil {
			return err
		}
	}

	// The chain is drained; dispose of whatever node is left marking its
	// end — the node the remove side stopped at, or (if it never
	// stopped, e.g. an empty queue) the live tail.
	final := q.removeStoppedID
	if final == NoPage {
		final = q.appendTailID
	}
	// Identifiers already drained into that still-open tail node are held
	// only by it; hand them back too.
	if q.appendTailFirst != NoPage {
		if err := dispose(q.appendTailFirst); err != nil {
			return err
		}
		cursor := NewPayloadCursor(q.appendTail, q.appendTailFirst)
		for pid, ok := cursor.Next(); ok; pid, ok = cursor.Next() {
			if err := dispose(pid); err != nil {
				return err
			}
		}
	}
	return dispose(final)
}
