package pagequeue

// ───────────────────────────────────────────────────────────────────────────
// Append / tryUnappend / drainAppendHeap — §4.2, §4.3, §5
// ───────────────────────────────────────────────────────────────────────────

// Append inserts pageId into the append heap (§4.3). It rejects
// pageId <= 1 as a contract violation. If the heap would no longer fit
// within the payload capacity and no drain is already in progress, it
// drains inline.
//
// Append takes the append lock itself; the lock is reentrant because a
// drain triggered here may allocate a new tail node through the page
// manager, which for a reserve queue can call back into Append on this
// same queue from the same goroutine (§5).
func (q *PageQueue) Append(pageId PageID) error {
	if pageId <= 1 {
		return contractViolation("append: page id %d is reserved or the none sentinel", pageId)
	}

	q.appendLock.Lock()
	defer q.appendLock.Unlock()

	q.appendHeap.Insert(pageId)
	q.appendPageCount++

	if q.drainInProgress {
		return nil
	}
	if q.appendHeap.ShouldDrain(PayloadCapacity(q.array.PageSize())) {
		return q.flushHeap()
	}
	return nil
}

// tryUnappend returns an identifier still held in the in-memory heap, or
// 0 if none. It never returns an identifier from an already-drained
// on-disk node (§3 invariant 6). Per §4.2, the heap only exposes its
// minimum to this caller — see DESIGN.md for why that is read literally
// here rather than as a LIFO "most recent" value.
//
// Must not be called with the remove lock held (§5).
func (q *PageQueue) tryUnappend() PageID {
	q.appendLock.Lock()
	defer q.appendLock.Unlock()

	if q.drainInProgress && q.appendHeap.Len() <= 1 {
		// The drain reserves the heap's last element as headroom for a
		// reentrant append (§3 invariant 7); refuse to hand it out.
		return NoPage
	}
	id, ok := q.appendHeap.TryRemove()
	if !ok {
		return NoPage
	}
	q.appendPageCount--
	return id
}

// flushHeap drains the append heap into the tail chain, rotating to a
// freshly allocated empty tail node every time the current one fills
// before the heap is empty. Caller must hold the append lock.
func (q *PageQueue) flushHeap() error {
	q.drainInProgress = true
	defer func() { q.drainInProgress = false }()

	for {
		full, err := q.drainIntoTail()
		if err != nil {
			return err
		}
		if !full {
			return q.array.WritePage(q.appendTailID, q.appendTail)
		}
		if err := q.rotateTail(); err != nil {
			return err
		}
	}
}

// drainIntoTail extracts as many identifiers as fit into the current
// tail's remaining payload space, in non-decreasing order (§4.2). It
// reports whether the tail is now full with the heap still non-empty
// (the caller must rotate to continue).
func (q *PageQueue) drainIntoTail() (full bool, err error) {
	if q.appendTailFirst == NoPage {
		first, ok := q.appendHeap.TryRemove()
		if !ok {
			return false, nil
		}
		q.appendTailFirst = first
		q.appendTailLast = first
		q.appendTailCount++
		WriteNodeHeader(q.appendTail, NoPage, first)
	}

	payload := q.appendTail[NodeHeaderSize:]
	offset, last, wrote := q.appendHeap.Drain(q.appendTailLast, payload, q.appendTailOffset)
	q.appendTailOffset = offset
	q.appendTailLast = last
	q.appendTailCount += wrote

	return q.appendHeap.Len() > 0, nil
}

// rotateTail allocates a fresh empty tail node, links the current (now
// full) tail to it, persists the outgoing tail, and switches the queue's
// tail state to the new node.
//
// On a normal queue the closed node stays counted on the append side
// until CommitStart folds it in at the next checkpoint. On an aggressive
// (reserve) queue the closed node is handed straight to the remove side:
// §3 invariant 3 and §5's weakened ordering guarantee let a reserve
// queue remove pages from the current, uncommitted epoch as soon as a
// later append has closed the node holding them — there is no reason to
// make that wait for a commit that may never come.
func (q *PageQueue) rotateTail() error {
	newID, err := q.manager.AllocPage(q.allocMode())
	if err != nil {
		return err
	}

	WriteNodeHeader(q.appendTail, newID, q.appendTailFirst)
	if err := q.array.WritePage(q.appendTailID, q.appendTail); err != nil {
		return err
	}

	if q.cfg.Aggressive {
		q.removePageCount += uint64(q.appendTailCount)
		q.removeNodeCount++
		q.appendPageCount -= uint64(q.appendTailCount)
	} else {
		q.appendNodeCount++
	}

	q.appendTailID = newID
	q.appendTail = NewNode(q.array.PageSize(), NoPage)
	q.appendTailFirst = NoPage
	q.appendTailLast = NoPage
	q.appendTailOffset = 0
	q.appendTailCount = 0
	return nil
}
