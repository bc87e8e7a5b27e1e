package hive

import (
	"fmt"
	"sort"

	"github.com/joshuapare/cehive/internal/format"
)

// Block is one section of the object store. Start and End are absolute
// offsets; End is exclusive and runs to the next section start or the end
// of the hive region.
type Block struct {
	Index  int    // position in the section table
	Offset uint32 // table value, relative to format.DataBase
	Start  int
	End    int
	Valid  bool
	Err    error

	section format.Section
}

// Len returns the extent of the block in bytes.
func (b Block) Len() int { return b.End - b.Start }

// BlockTable is the decoded section table.
type BlockTable struct {
	blocks    []Block
	sorted    []int // indices of valid blocks ordered by Start
	regionEnd int
}

// parseBlockTable decodes the section table of data[:regionEnd]. Sections
// that are unreadable, lie outside the region or carry the wrong magic are
// kept as invalid blocks. Overlapping sections stay valid so their entries
// can still be scanned.
func (d *decoder) parseBlockTable() *BlockTable {
	region := d.data[:d.regionEnd]
	bt := &BlockTable{regionEnd: d.regionEnd}

	offsets, terminated, err := format.ParseSectionTable(region)
	if err != nil {
		d.anomaly(Anomaly{Kind: CorruptBlockTable, Offset: format.SectionTableOffset, Err: err})
		return bt
	}
	if !terminated {
		d.log.Debug("section table not terminated", "sections", len(offsets))
	}

	for i, off := range offsets {
		b := Block{Index: i, Offset: off, Start: format.DataBase + int(off)}
		sec, err := format.ParseSection(region, b.Start)
		switch {
		case err != nil:
			b.Err = err
			b.End = b.Start
			d.anomaly(Anomaly{Kind: CorruptBlockTable, Offset: b.Start, Err: err})
		default:
			b.Valid = true
			b.section = sec
		}
		bt.blocks = append(bt.blocks, b)
	}

	for i := range bt.blocks {
		if bt.blocks[i].Valid {
			bt.sorted = append(bt.sorted, i)
		}
	}
	sort.SliceStable(bt.sorted, func(a, b int) bool {
		return bt.blocks[bt.sorted[a]].Start < bt.blocks[bt.sorted[b]].Start
	})

	for n, idx := range bt.sorted {
		b := &bt.blocks[idx]
		b.End = d.regionEnd
		if n+1 < len(bt.sorted) {
			b.End = bt.blocks[bt.sorted[n+1]].Start
		}
		if b.End-b.Start < format.SectionHeaderSize {
			next := bt.blocks[bt.sorted[n+1]]
			d.anomaly(Anomaly{
				Kind:   CorruptBlockTable,
				Offset: next.Start,
				Err: fmt.Errorf("section %d at 0x%X overlaps section %d at 0x%X",
					next.Index, next.Start, b.Index, b.Start),
			})
			b.End = b.Start + format.SectionHeaderSize
		}
		d.log.Debug("section", "index", b.Index, "start", b.Start, "end", b.End)
	}
	return bt
}

// Len returns the number of section table slots read.
func (t *BlockTable) Len() int { return len(t.blocks) }

// Block returns the block at table position i.
func (t *BlockTable) Block(i int) Block { return t.blocks[i] }

// Blocks returns every block in table order.
func (t *BlockTable) Blocks() []Block {
	out := make([]Block, len(t.blocks))
	copy(out, t.blocks)
	return out
}

// Valid returns the valid blocks ordered by start offset.
func (t *BlockTable) Valid() []Block {
	out := make([]Block, 0, len(t.sorted))
	for _, i := range t.sorted {
		out = append(out, t.blocks[i])
	}
	return out
}

// BlockContaining returns the valid block whose extent contains off. When
// sections overlap the one starting last at or before off wins.
func (t *BlockTable) BlockContaining(off int) (Block, bool) {
	n := sort.Search(len(t.sorted), func(i int) bool {
		return t.blocks[t.sorted[i]].Start > off
	})
	for n > 0 {
		n--
		b := t.blocks[t.sorted[n]]
		if off >= b.Start && off < b.End {
			return b, true
		}
	}
	return Block{}, false
}

// Span returns the absolute range covered by valid blocks. It returns
// (0, 0) when there are none.
func (t *BlockTable) Span() (start, end int) {
	if len(t.sorted) == 0 {
		return 0, 0
	}
	first := t.blocks[t.sorted[0]]
	start, end = first.Start, first.End
	for _, i := range t.sorted[1:] {
		end = max(end, t.blocks[i].End)
	}
	return start, end
}
