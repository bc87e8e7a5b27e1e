package format

import (
	"fmt"
	"strconv"
)

// DecodeRoots decodes an ET_ROOTS payload: RootsSlotCount entry ids, zero
// for an unused slot.
func DecodeRoots(b []byte) ([RootsSlotCount]uint32, error) {
	var ids [RootsSlotCount]uint32
	if len(b) < RootsMinSize {
		return ids, fmt.Errorf("roots: %w (have %d, need %d)", ErrTruncated, len(b), RootsMinSize)
	}
	for i := range ids {
		ids[i] = ReadU32(b, i*OffsetFieldSize)
	}
	return ids, nil
}

// RootName returns the predefined key name for roots slot i.
func RootName(i int) string {
	if i >= 0 && i < len(RootNames) {
		return RootNames[i]
	}
	return "ROOT" + strconv.Itoa(i)
}

// IndexEntry is one (hash, id) pair of an ET_INDEX hash table.
type IndexEntry struct {
	Hash uint32
	ID   uint32
}

// DecodeIndex decodes an ET_INDEX payload. The payload length must be a
// multiple of IndexEntrySize.
func DecodeIndex(b []byte) ([]IndexEntry, error) {
	if len(b)%IndexEntrySize != 0 {
		return nil, fmt.Errorf("index: %w (length %d not a multiple of %d)", ErrTruncated, len(b), IndexEntrySize)
	}
	out := make([]IndexEntry, len(b)/IndexEntrySize)
	for i := range out {
		base := i * IndexEntrySize
		out[i] = IndexEntry{
			Hash: ReadU32(b, base+IndexHashOffset),
			ID:   ReadU32(b, base+IndexIDOffset),
		}
	}
	return out, nil
}
