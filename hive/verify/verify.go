package verify

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/joshuapare/cehive/hive"
	"github.com/joshuapare/cehive/internal/format"
)

// ValidationError describes the first invariant a hive violates.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates all hive invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(data []byte) error {
	if err := Header(data); err != nil {
		return err
	}
	if err := FileSize(data); err != nil {
		return err
	}
	if err := SectionTable(data); err != nil {
		return err
	}
	if err := Entries(data); err != nil {
		return err
	}
	return Tree(data)
}

// Header validates the magic, the declared header size, the file type and
// the volume flags.
func Header(data []byte) error {
	if len(data) < format.HeaderMinSize {
		return &ValidationError{
			Type:    "Header",
			Message: fmt.Sprintf("file too small: %d bytes (need %d)", len(data), format.HeaderMinSize),
			Offset:  -1,
		}
	}
	magic := data[format.HeaderMagicOffset : format.HeaderMagicOffset+format.HeaderMagicSize]
	if !bytes.Equal(magic, format.HiveMagic) {
		return &ValidationError{
			Type:    "Header",
			Message: fmt.Sprintf("invalid signature: got %q, expected %q", magic, format.HiveMagic),
			Offset:  format.HeaderMagicOffset,
		}
	}
	hdr, err := format.ParseHeader(data)
	if err != nil {
		return &ValidationError{Type: "Header", Message: err.Error(), Offset: 0}
	}
	if hdr.HeaderSize != format.HeaderDeclaredSize {
		return &ValidationError{
			Type:    "Header",
			Message: fmt.Sprintf("unexpected header size: 0x%X (expected 0x%X)", hdr.HeaderSize, format.HeaderDeclaredSize),
			Offset:  format.HeaderSizeOffset,
		}
	}
	if hdr.FileType != format.FileTypeCE7 {
		return &ValidationError{
			Type:    "Header",
			Message: fmt.Sprintf("unexpected file type: 0x%X (expected 0x%X)", hdr.FileType, format.FileTypeCE7),
			Offset:  format.HeaderFileTypeOffset,
		}
	}
	if !hdr.IsRegistryHive() {
		return &ValidationError{
			Type:    "Header",
			Message: "volume flags do not mark a registry hive",
			Offset:  format.HeaderIsRegHiveOffset,
			Details: map[string]interface{}{
				"is_reg_hive":  hdr.IsRegHive,
				"is_db_volume": hdr.IsDBVolume,
			},
		}
	}
	return nil
}

// FileSize validates that the buffer length matches the declared file size.
func FileSize(data []byte) error {
	if len(data) < format.HeaderMinSize {
		return &ValidationError{
			Type:    "FileSize",
			Message: fmt.Sprintf("file too small: %d bytes", len(data)),
			Offset:  -1,
		}
	}
	declared := int(format.ReadU32(data, format.HeaderFileSizeOffset))
	if declared != len(data) {
		return &ValidationError{
			Type:    "FileSize",
			Message: fmt.Sprintf("file size mismatch: actual=0x%X, declared=0x%X", len(data), declared),
			Offset:  format.HeaderFileSizeOffset,
			Details: map[string]interface{}{
				"actual":   len(data),
				"declared": declared,
			},
		}
	}
	return nil
}

// SectionTable validates that every section lies inside the file, carries
// the section magic and does not overlap another section's header.
func SectionTable(data []byte) error {
	offsets, _, err := format.ParseSectionTable(data)
	if err != nil {
		return &ValidationError{Type: "SectionTable", Message: err.Error(), Offset: format.SectionTableOffset}
	}
	starts := make([]int, 0, len(offsets))
	for i, off := range offsets {
		start := format.DataBase + int(off)
		if off&format.SlotFlagsMask != 0 {
			return &ValidationError{
				Type:    "SectionTable",
				Message: fmt.Sprintf("section %d offset 0x%X not 4-byte aligned", i, off),
				Offset:  format.SectionTableOffset + i*format.OffsetFieldSize,
			}
		}
		if _, err := format.ParseSection(data, start); err != nil {
			return &ValidationError{
				Type:    "SectionTable",
				Message: fmt.Sprintf("section %d: %v", i, err),
				Offset:  start,
			}
		}
		starts = append(starts, start)
	}
	sort.Ints(starts)
	for i := 1; i < len(starts); i++ {
		if starts[i]-starts[i-1] < format.SectionHeaderSize {
			return &ValidationError{
				Type:    "SectionTable",
				Message: fmt.Sprintf("section at 0x%X overlaps section at 0x%X", starts[i], starts[i-1]),
				Offset:  starts[i],
			}
		}
	}
	return nil
}

// Entries validates every live slot: the entry must lie after its section
// header, fit inside the section, carry a known type and a unique id.
func Entries(data []byte) error {
	offsets, _, err := format.ParseSectionTable(data)
	if err != nil {
		return &ValidationError{Type: "Entries", Message: err.Error(), Offset: format.SectionTableOffset}
	}
	starts := make([]int, len(offsets))
	for i, off := range offsets {
		starts[i] = format.DataBase + int(off)
	}
	sorted := append([]int(nil), starts...)
	sort.Ints(sorted)
	sectionEnd := func(start int) int {
		i := sort.SearchInts(sorted, start+1)
		if i < len(sorted) {
			return sorted[i]
		}
		return len(data)
	}

	ids := make(map[uint32]int)
	for _, start := range starts {
		sec, err := format.ParseSection(data, start)
		if err != nil {
			return &ValidationError{Type: "Entries", Message: err.Error(), Offset: start}
		}
		end := sectionEnd(start)
		for i := range format.SectionSlotCount {
			slot := sec.Slot(i)
			if !slot.Live() {
				continue
			}
			off := format.DataBase + int(slot.Offset)
			if off < start+format.SectionHeaderSize || off >= end {
				return &ValidationError{
					Type:    "Entries",
					Message: fmt.Sprintf("slot %d points outside its section [0x%X, 0x%X)", i, start, end),
					Offset:  off,
				}
			}
			hdr, err := format.ParseEntryHeader(data, off)
			if err != nil {
				return &ValidationError{Type: "Entries", Message: err.Error(), Offset: off}
			}
			if off+hdr.TotalSize() > end {
				return &ValidationError{
					Type:    "Entries",
					Message: fmt.Sprintf("entry of %d bytes crosses section end 0x%X", hdr.TotalSize(), end),
					Offset:  off,
				}
			}
			if !hdr.Type.Known() {
				return &ValidationError{
					Type:    "Entries",
					Message: fmt.Sprintf("unknown entry type 0x%X", uint8(hdr.Type)),
					Offset:  off,
				}
			}
			if prev, dup := ids[hdr.ID]; dup {
				return &ValidationError{
					Type:    "Entries",
					Message: fmt.Sprintf("entry id 0x%X already used at 0x%X", hdr.ID, prev),
					Offset:  off,
					Details: map[string]interface{}{"id": hdr.ID, "first": prev},
				}
			}
			ids[hdr.ID] = off
		}
	}
	return nil
}

// Tree decodes data and fails on the first anomaly the decoder records.
func Tree(data []byte) error {
	h, err := hive.Decode(data)
	if err != nil {
		return &ValidationError{Type: "Tree", Message: err.Error(), Offset: -1}
	}
	if anomalies := h.Anomalies(); len(anomalies) > 0 {
		a := anomalies[0]
		return &ValidationError{
			Type:    "Tree",
			Message: a.String(),
			Offset:  a.Offset,
			Details: map[string]interface{}{
				"kind":  a.Kind.String(),
				"count": len(anomalies),
			},
		}
	}
	return nil
}
