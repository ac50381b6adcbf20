package pagequeue

import "encoding/binary"

// ───────────────────────────────────────────────────────────────────────────
// Header codec — §3, §4.4
// ───────────────────────────────────────────────────────────────────────────
//
// The queue's durable state lives as a 44-byte, little-endian slice inside
// the database superblock/checkpoint header (an external structure this
// package never owns — the caller supplies the offset into whatever buffer
// that header lives in). Layout:
//
//	Offset  Size  Field
//	──────  ────  ───────────────────────
//	0       8     RemovePageCount       uint64 LE
//	8       8     RemoveNodeCount       uint64 LE
//	16      8     RemoveHeadID          uint64 LE
//	24      4     RemoveHeadOffset      uint32 LE
//	28      8     RemoveHeadFirstPageID uint64 LE
//	36      8     AppendHeadID          uint64 LE
//
// Endianness here is little-endian, deliberately different from the
// big-endian queue-node header (node.go) — see that file's doc comment for
// why the mismatch is intentional and load-bearing.
const HeaderSize = 44

const (
	hdrRemovePageCountOff  = 0
	hdrRemoveNodeCountOff  = 8
	hdrRemoveHeadIDOff     = 16
	hdrRemoveHeadOffOff    = 24
	hdrRemoveHeadFirstOff  = 28
	hdrAppendHeadIDOff     = 36
)

// Header is the parsed contents of the 44-byte header slice.
type Header struct {
	RemovePageCount       uint64
	RemoveNodeCount       uint64
	RemoveHeadID          PageID
	RemoveHeadOffset      uint32
	RemoveHeadFirstPageID PageID
	AppendHeadID          PageID
}

// MarshalHeader writes h into buf[offset : offset+HeaderSize].
func MarshalHeader(h *Header, buf []byte, offset int) {
	b := buf[offset : offset+HeaderSize]
	binary.LittleEndian.PutUint64(b[hdrRemovePageCountOff:], h.RemovePageCount)
	binary.LittleEndian.PutUint64(b[hdrRemoveNodeCountOff:], h.RemoveNodeCount)
	binary.LittleEndian.PutUint64(b[hdrRemoveHeadIDOff:], uint64(h.RemoveHeadID))
	binary.LittleEndian.PutUint32(b[hdrRemoveHeadOffOff:], h.RemoveHeadOffset)
	binary.LittleEndian.PutUint64(b[hdrRemoveHeadFirstOff:], uint64(h.RemoveHeadFirstPageID))
	binary.LittleEndian.PutUint64(b[hdrAppendHeadIDOff:], uint64(h.AppendHeadID))
}

// UnmarshalHeader reads a Header from buf[offset : offset+HeaderSize].
func UnmarshalHeader(buf []byte, offset int) Header {
	b := buf[offset : offset+HeaderSize]
	return Header{
		RemovePageCount:       binary.LittleEndian.Uint64(b[hdrRemovePageCountOff:]),
		RemoveNodeCount:       binary.LittleEndian.Uint64(b[hdrRemoveNodeCountOff:]),
		RemoveHeadID:          PageID(binary.LittleEndian.Uint64(b[hdrRemoveHeadIDOff:])),
		RemoveHeadOffset:      binary.LittleEndian.Uint32(b[hdrRemoveHeadOffOff:]),
		RemoveHeadFirstPageID: PageID(binary.LittleEndian.Uint64(b[hdrRemoveHeadFirstOff:])),
		AppendHeadID:          PageID(binary.LittleEndian.Uint64(b[hdrAppendHeadIDOff:])),
	}
}

// HeaderExists reports whether a valid queue is encoded at buf[offset:] —
// restores after first boot carry a zero RemoveHeadID there (§4.4).
func HeaderExists(buf []byte, offset int) bool {
	return PageID(binary.LittleEndian.Uint64(buf[offset+hdrRemoveHeadIDOff:])) != NoPage
}
