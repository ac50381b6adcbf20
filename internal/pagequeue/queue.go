package pagequeue

// ───────────────────────────────────────────────────────────────────────────
// PageQueue — durable state and lifecycle (§2, §3, §4.3, §4.5)
// ───────────────────────────────────────────────────────────────────────────

// PageQueueConfig configures a PageQueue at construction time, in the
// teacher's plain-struct-literal style (c.f. pager.PagerConfig) rather
// than functional options.
type PageQueueConfig struct {
	// Aggressive marks a reserve-list queue: tryRemove may return pages
	// appended in the current, unfinished epoch (§3 invariant 3), and
	// Reclaim is only legal on such a queue.
	Aggressive bool
}

// PageQueue is the persistent, split-list FIFO of page identifiers
// described in §2–§4. It holds no file handle and no buffer pool of its
// own; all I/O goes through the PageManager/PageArray it was constructed
// with.
type PageQueue struct {
	manager PageManager
	array   PageArray
	cfg     PageQueueConfig

	appendLock reentrantLock

	// Remove side (§3). Consumed by TryRemove, under the caller-held
	// remove lock.
	removePageCount       uint64
	removeNodeCount       uint64
	removeHeadID          PageID
	removeHeadFirstPageID PageID
	removeStoppedID       PageID
	removeHeadBuf         []byte
	removeCursor          *PayloadCursor
	// removeHeadStale is set only by New(): the bootstrap node is cached
	// without ever being read back from disk, and remains simultaneously
	// reachable from the append side until something closes it — a
	// rotation past it in aggressive mode, or a commit in normal mode.
	// TryRemove must not trust the cache while this is set; it clears the
	// instant the head is next replaced by a genuine disk read.
	removeHeadStale bool

	// Append side (§3). Mutated by Append/drainAppendHeap under the
	// append lock.
	appendHeap      *AppendHeap
	appendTail      []byte
	appendTailID    PageID
	appendHeadID    PageID // the barrier (§3 invariant 2)
	appendPageCount uint64
	appendNodeCount uint64
	drainInProgress bool

	// appendTailFirst/appendTailLast/appendTailOffset track how much of
	// the current (unfinished) tail node's payload has been written:
	// appendTailFirst is NoPage while the tail is still empty, else the
	// node's FirstPageID; appendTailLast is the baseline the next delta
	// would be computed from; appendTailOffset is the next free byte in
	// the payload.
	appendTailFirst  PageID
	appendTailLast   PageID
	appendTailOffset int
	// appendTailCount is how many identifiers have been drained into the
	// current tail node so far; rotateTail uses it to hand the just-closed
	// node's page count to the remove side immediately in aggressive mode
	// (§3 invariant 3), instead of waiting for CommitStart's epoch fold.
	appendTailCount int

	// loggedBoundsSkip records whether the §9 open-question log record
	// has already fired for this queue, so a long-lived aggressive queue
	// logs the tolerance once rather than once per call.
	loggedBoundsSkip bool
}

// allocMode returns the AllocMode this queue's own node pages should be
// requested with.
func (q *PageQueue) allocMode() AllocMode {
	if q.cfg.Aggressive {
		return AllocReserve
	}
	return AllocNormal
}

// New creates an empty queue pointing at a single freshly allocated node
// that is simultaneously remove_head_id, append_head_id and
// append_tail_id, per the lifecycle described in §3.
func New(manager PageManager, cfg PageQueueConfig) (*PageQueue, error) {
	q := &PageQueue{
		manager:    manager,
		array:      manager.PageArray(),
		cfg:        cfg,
		appendHeap: NewAppendHeap(),
	}

	id, err := manager.AllocPage(q.allocMode())
	if err != nil {
		return nil, err
	}
	buf := NewNode(q.array.PageSize(), NoPage)
	if err := q.array.WritePage(id, buf); err != nil {
		return nil, err
	}

	q.removeHeadID = id
	q.removeHeadFirstPageID = NoPage
	// The remove-side cache and the append-side tail buffer start out as
	// the same physical node, but are kept as independent copies: the
	// remove side only ever transitions off of it via a fresh disk read
	// (TryRemove's removeHeadStale reload), and letting the two alias the same backing array would
	// make an append-side drain visible through the remove-side cursor
	// before any commit made it so. removeHeadStale flags exactly this
	// window until that first fresh read happens.
	headCopy := make([]byte, len(buf))
	copy(headCopy, buf)
	q.removeHeadBuf = headCopy
	q.removeCursor = NewPayloadCursor(headCopy, NoPage)
	q.removeHeadStale = true

	q.appendHeadID = id
	q.appendTailID = id
	q.appendTail = buf

	return q, nil
}

// Restore reconstructs a PageQueue from a header slice previously written
// by CommitStart/CommitEnd (§4.4). After restore the cached head node is
// read back from disk, as the lifecycle in §3 requires.
func Restore(manager PageManager, cfg PageQueueConfig, header []byte, offset int) (*PageQueue, error) {
	h := UnmarshalHeader(header, offset)

	q := &PageQueue{
		manager:    manager,
		array:      manager.PageArray(),
		cfg:        cfg,
		appendHeap: NewAppendHeap(),

		removePageCount:       h.RemovePageCount,
		removeNodeCount:       h.RemoveNodeCount,
		removeHeadID:          h.RemoveHeadID,
		removeHeadFirstPageID: h.RemoveHeadFirstPageID,
		appendHeadID:          h.AppendHeadID,
		appendTailID:          h.AppendHeadID,
	}

	if q.removeHeadID != NoPage {
		buf := make([]byte, q.array.PageSize())
		if err := q.array.ReadPage(q.removeHeadID, buf); err != nil {
			return nil, err
		}
		q.removeHeadBuf = buf
		first := q.removeHeadFirstPageID
		if first == NoPage {
			// Sentinel: the real first_page_id lives on the node itself
			// (§4.3 commitStart: "a sentinel meaning read it from the
			// node on restore").
			_, first = ReadNodeHeader(buf)
			q.removeHeadFirstPageID = first
		}
		q.removeCursor = NewPayloadCursor(buf, first)
		q.removeCursor.SeekTo(int(h.RemoveHeadOffset), first)
	} else {
		// Stopped state (§4.5): remove side exhausted, resume point is
		// the barrier recorded in the header.
		q.removeStoppedID = h.AppendHeadID
	}

	tailBuf := make([]byte, q.array.PageSize())
	if err := q.array.ReadPage(q.appendTailID, tailBuf); err != nil {
		return nil, err
	}
	q.appendTail = tailBuf

	return q, nil
}

// loadNode reads the node at id into a fresh buffer.
func (q *PageQueue) loadNode(id PageID) ([]byte, error) {
	buf := make([]byte, q.array.PageSize())
	if err := q.array.ReadPage(id, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// barrier returns the node identifier tryRemove must not cross: the live
// append tail in aggressive mode (so a reserve queue may consume pages
// from the current, unfinished epoch), else the durable barrier
// append_head_id (§4.3 step 4).
func (q *PageQueue) barrier() PageID {
	if q.cfg.Aggressive {
		return q.appendTailID
	}
	return q.appendHeadID
}

// AddTo adds this queue's page and node counts into stats, per §6
// "Provided to the page manager": addTo(stats) adds
// remove_page_count + append_page_count + remove_node_count +
// append_node_count to a freePages tally.
func (q *PageQueue) AddTo(stats *FreePageStats) {
	stats.PageCount += q.removePageCount + q.appendPageCount
	stats.NodeCount += q.removeNodeCount + q.appendNodeCount
}
