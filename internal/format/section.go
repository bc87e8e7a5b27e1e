package format

import (
	"fmt"

	"github.com/joshuapare/cehive/internal/buf"
)

// ParseSectionTable reads the section offset list at SectionTableOffset. The
// first slot is always returned, even when zero. Reading stops at the first
// zero slot after that, at DataBase, or at the end of b; terminated reports
// whether a zero terminator was seen.
func ParseSectionTable(b []byte) (offsets []uint32, terminated bool, err error) {
	c := buf.NewCursor(b)
	first, err := c.U32(SectionTableOffset)
	if err != nil {
		return nil, false, fmt.Errorf("section table: %w", ErrTruncated)
	}
	offsets = append(offsets, first)
	for i := 1; i < SectionTableMaxSlots; i++ {
		v, err := c.U32(SectionTableOffset + i*OffsetFieldSize)
		if err != nil {
			return offsets, false, nil
		}
		if v == 0 {
			return offsets, true, nil
		}
		offsets = append(offsets, v)
	}
	return offsets, false, nil
}

// Slot is one decoded entry slot of a section.
type Slot struct {
	Index  int
	Raw    uint32
	Offset uint32 // relative to DataBase
	Flags  uint8
}

// Empty reports whether the slot was never used.
func (s Slot) Empty() bool { return s.Raw == 0 }

// Live reports whether the slot references an allocated entry.
func (s Slot) Live() bool { return s.Flags == SlotFlagLive }

// Section is a decoded section header.
//
//	Offset  Size    Field
//	0x000   4       0x20001004
//	0x004   4       Reserved
//	0x008   4       Reserved
//	0x00C   0x1000  0x400 entry slots
type Section struct {
	Magic     uint32
	Reserved0 uint32
	Reserved1 uint32
	slots     []byte
}

// ParseSection decodes the section header at absolute offset off.
func ParseSection(b []byte, off int) (Section, error) {
	c := buf.NewCursor(b)
	raw, err := c.Bytes(off, SectionHeaderSize)
	if err != nil {
		return Section{}, fmt.Errorf("section at 0x%X: %w: %w", off, ErrTruncated, err)
	}
	hc := buf.NewCursor(raw)
	magic, _ := hc.U32(SectionMagicOffset)
	r0, _ := hc.U32(SectionReserved0Offset)
	r1, _ := hc.U32(SectionReserved1Offset)
	s := Section{Magic: magic, Reserved0: r0, Reserved1: r1, slots: raw[SectionSlotsOffset:]}
	if magic != SectionMagic {
		return s, fmt.Errorf("section at 0x%X: %w (magic 0x%08X)", off, ErrSignatureMismatch, magic)
	}
	return s, nil
}

// Slot returns slot i. i must be in [0, SectionSlotCount).
func (s Section) Slot(i int) Slot {
	raw := ReadU32(s.slots, i*OffsetFieldSize)
	return Slot{
		Index:  i,
		Raw:    raw,
		Offset: raw & SlotOffsetMask,
		Flags:  uint8(raw & SlotFlagsMask),
	}
}
