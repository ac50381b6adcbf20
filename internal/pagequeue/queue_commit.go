package pagequeue

// ───────────────────────────────────────────────────────────────────────────
// PreCommit / CommitStart / CommitEnd — §4.3 two-phase commit handshake
// ───────────────────────────────────────────────────────────────────────────
//
// Callers must hold the append lock before PreCommit and across
// CommitStart (§5's lock order: append lock first, remove lock second).
// LockAppend/UnlockAppend (lock.go) expose the queue's internal append
// lock for exactly this multi-call sequence, since Append only takes and
// releases it for the duration of a single call.

// PreCommit drains the append heap fully so every currently appended
// identifier resides on an on-disk node of the chain, then — only if
// anything was actually written to the current tail — rotates to a fresh
// empty tail. The rotation is conditional so an empty epoch leaves
// append_tail_id (and therefore the barrier CommitStart derives from it)
// completely unchanged, per the empty-epoch boundary case.
func (q *PageQueue) PreCommit() error {
	if err := q.flushHeap(); err != nil {
		return err
	}
	if q.appendTailFirst != NoPage {
		return q.rotateTail()
	}
	return nil
}

// CommitStart writes the post-epoch queue state into header[offset:] and
// folds this epoch's append counts into the remove-side counts in memory.
// It does not itself change the live remove-side cursor: CommitEnd only
// advances the barrier once the header write is durable, and TryRemove
// moves the cursor onto whatever that unblocks.
func (q *PageQueue) CommitStart(header []byte, offset int) {
	var h Header

	if q.removeHeadID == NoPage && q.appendPageCount > 0 {
		// Remove side is fully exhausted, but this epoch appended pages:
		// it resumes, after the checkpoint is durable, at the node that
		// was the barrier for this epoch. first_page_id is unknown until
		// that node is read back, hence the sentinel.
		h.RemoveHeadID = q.appendHeadID
		h.RemoveHeadOffset = 0
		h.RemoveHeadFirstPageID = NoPage
	} else {
		h.RemoveHeadID = q.removeHeadID
		if q.removeCursor != nil {
			h.RemoveHeadOffset = uint32(q.removeCursor.Offset())
		}
		h.RemoveHeadFirstPageID = q.removeHeadFirstPageID
	}

	q.removePageCount += q.appendPageCount
	q.removeNodeCount += q.appendNodeCount
	h.RemovePageCount = q.removePageCount
	h.RemoveNodeCount = q.removeNodeCount
	h.AppendHeadID = q.appendTailID

	MarshalHeader(&h, header, offset)

	q.appendPageCount = 0
	q.appendNodeCount = 0
}

// CommitEnd is called after the header write CommitStart produced has
// become durable. It only needs to advance the in-memory barrier; the
// remove side picks up whatever that unblocks lazily, the next time
// TryRemove runs (it reloads a newly closed node from disk itself, and
// resumes from removeStoppedID itself once the barrier moves past it).
func (q *PageQueue) CommitEnd(header []byte, offset int) error {
	h := UnmarshalHeader(header, offset)
	q.appendHeadID = h.AppendHeadID
	return nil
}
