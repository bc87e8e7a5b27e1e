package hive

import (
	"fmt"

	"github.com/joshuapare/cehive/internal/buf"
	"github.com/joshuapare/cehive/internal/format"
)

// CellKind is the decoded shape of an entry.
type CellKind uint8

const (
	// CellOpaque carries its payload undecoded: object store records and
	// unknown tags.
	CellOpaque CellKind = iota
	CellKey
	CellValue
	CellHashTable
	CellRoots
)

func (k CellKind) String() string {
	switch k {
	case CellKey:
		return "key"
	case CellValue:
		return "value"
	case CellHashTable:
		return "hash-table"
	case CellRoots:
		return "roots"
	default:
		return "opaque"
	}
}

// Cell is one live entry of the object store. Exactly one of Key, Value,
// Roots and Index is meaningful, selected by Kind. A cell with a non-nil
// Err could not be decoded.
type Cell struct {
	Offset  int // absolute offset of the entry header
	ID      uint32
	Type    format.EntryType
	Size    uint32 // declared payload size
	Kind    CellKind
	Block   int // section table position of the containing block
	Payload []byte
	Err     error

	Key   format.KeyRecord
	Value format.ValueRecord
	Roots [format.RootsSlotCount]uint32
	Index []format.IndexEntry

	anomaly int // index of the anomaly recorded while decoding, or -1
}

// End returns the offset just past the entry.
func (c Cell) End() int { return c.Offset + format.EntryHeaderSize + int(c.Size) }

// decodeCell decodes the entry at absolute offset off. ok is false when the
// entry header itself is unreadable. The returned anomaly is not recorded;
// the caller decides.
func (d *decoder) decodeCell(off int) (c Cell, ok bool, a *Anomaly) {
	region := d.data[:d.regionEnd]
	hdr, err := format.ParseEntryHeader(region, off)
	if err != nil {
		return Cell{}, false, &Anomaly{Kind: OutOfBounds, Offset: off, Err: err}
	}
	c = Cell{Offset: off, ID: hdr.ID, Type: hdr.Type, Size: hdr.Size, Block: -1, anomaly: -1}

	blk, found := d.blocks.BlockContaining(off)
	if !found {
		c.Err = fmt.Errorf("entry at 0x%X: %w", off, errOutsideSection)
		return c, true, &Anomaly{Kind: MalformedCell, Offset: off, ID: hdr.ID, Err: c.Err}
	}
	c.Block = blk.Index
	if off < blk.Start+format.SectionHeaderSize {
		c.Err = fmt.Errorf("entry at 0x%X: %w", off, errInSectionHdr)
		return c, true, &Anomaly{Kind: MalformedCell, Offset: off, ID: hdr.ID, Err: c.Err}
	}
	end, fits := buf.AddOverflowSafe(off, hdr.TotalSize())
	if !fits || end > blk.End {
		c.Err = fmt.Errorf("entry at 0x%X size %d: %w (section ends at 0x%X)", off, hdr.Size, errPastSection, blk.End)
		return c, true, &Anomaly{Kind: MalformedCell, Offset: off, ID: hdr.ID, Err: c.Err}
	}
	c.Payload = region[off+format.EntryPayloadOffset : end]

	switch hdr.Type {
	case format.EntryRoots:
		c.Kind = CellRoots
		c.Roots, err = format.DecodeRoots(c.Payload)
	case format.EntryKey:
		c.Kind = CellKey
		c.Key, err = format.DecodeKey(c.Payload)
	case format.EntryValue:
		c.Kind = CellValue
		c.Value, err = format.DecodeValue(c.Payload)
	case format.EntryIndex:
		c.Kind = CellHashTable
		c.Index, err = format.DecodeIndex(c.Payload)
	default:
		c.Kind = CellOpaque
		if !hdr.Type.Known() {
			c.Err = fmt.Errorf("entry at 0x%X: %w 0x%X", off, errUnknownType, uint8(hdr.Type))
			return c, true, &Anomaly{Kind: UnknownCellType, Offset: off, ID: hdr.ID, Err: c.Err}
		}
	}
	if err != nil {
		c.Err = fmt.Errorf("%s entry at 0x%X: %w", hdr.Type, off, err)
		return c, true, &Anomaly{Kind: MalformedCell, Offset: off, ID: hdr.ID, Err: c.Err}
	}
	return c, true, nil
}

// scan walks the slots of every valid block. Live entries are decoded into
// the cell arena; freed entries feed the free list and the freed-id index.
func (d *decoder) scan() {
	var live, freed []int
	for _, b := range d.blocks.blocks {
		if !b.Valid {
			continue
		}
		for i := range format.SectionSlotCount {
			s := b.section.Slot(i)
			if s.Empty() {
				continue
			}
			off := format.DataBase + int(s.Offset)
			if s.Live() {
				live = append(live, off)
			} else {
				freed = append(freed, off)
			}
		}
	}

	for _, off := range live {
		if _, dup := d.byOffset[off]; dup {
			continue
		}
		c, ok, a := d.decodeCell(off)
		if a != nil {
			c.anomaly = d.anomaly(*a)
		}
		if !ok {
			continue
		}
		idx := len(d.cells)
		d.byOffset[off] = idx
		if prev, exists := d.byID[c.ID]; exists {
			d.anomaly(Anomaly{
				Kind:   DuplicateID,
				Offset: d.cells[prev].Offset,
				ID:     c.ID,
				Err:    fmt.Errorf("superseded by entry at 0x%X", c.Offset),
			})
		}
		d.byID[c.ID] = idx
		d.cells = append(d.cells, c)
	}

	for _, off := range freed {
		if _, reused := d.byOffset[off]; reused {
			continue
		}
		end := off + format.EntryHeaderSize
		hdr, err := format.ParseEntryHeader(d.data[:d.regionEnd], off)
		if err == nil {
			if e, fits := buf.AddOverflowSafe(off, hdr.TotalSize()); fits {
				end = e
			}
			if _, live := d.byID[hdr.ID]; !live {
				if _, seen := d.freedByID[hdr.ID]; !seen {
					d.freedByID[hdr.ID] = off
				}
			}
		}
		d.free.add(min(off, d.regionEnd), min(end, d.regionEnd))
	}
	d.free.finish()
	d.log.Debug("scan complete", "cells", len(d.cells), "freed", len(freed), "free_bytes", d.free.Bytes())
}
