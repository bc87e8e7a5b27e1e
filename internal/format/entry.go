package format

import (
	"fmt"

	"github.com/joshuapare/cehive/internal/buf"
)

// EntryHeader is the fixed prefix of every entry.
//
//	Offset  Size  Field
//	0x00    4     Type (bits 28..31) and payload size (bits 0..27)
//	0x04    4     Reserved (0)
//	0x08    4     Entry id
//	0x0C    n     Payload
type EntryHeader struct {
	Type     EntryType
	Size     uint32
	Reserved uint32
	ID       uint32
}

// TotalSize returns the header plus payload length.
func (e EntryHeader) TotalSize() int {
	return EntryHeaderSize + int(e.Size)
}

// ParseEntryHeader decodes the entry header at absolute offset off.
func ParseEntryHeader(b []byte, off int) (EntryHeader, error) {
	c := buf.NewCursor(b)
	raw, err := c.U32(off + EntrySizeOffset)
	if err != nil {
		return EntryHeader{}, fmt.Errorf("entry at 0x%X: %w", off, err)
	}
	reserved, err := c.U32(off + EntryReservedOffset)
	if err != nil {
		return EntryHeader{}, fmt.Errorf("entry at 0x%X: %w", off, err)
	}
	id, err := c.U32(off + EntryIDOffset)
	if err != nil {
		return EntryHeader{}, fmt.Errorf("entry at 0x%X: %w", off, err)
	}
	return EntryHeader{
		Type:     EntryType(raw >> EntryTypeShift),
		Size:     raw & EntrySizeMask,
		Reserved: reserved,
		ID:       id,
	}, nil
}

// PackEntrySize builds the size word for an entry of type t.
func PackEntrySize(t EntryType, size uint32) uint32 {
	return uint32(t)<<EntryTypeShift | size&EntrySizeMask
}
