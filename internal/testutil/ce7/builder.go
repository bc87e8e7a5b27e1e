// Package ce7 is a deliberately minimal CE7 hive encoder used by tests. It
// writes only what the decoder reads and offers hooks for producing corrupt
// hives.
package ce7

import "github.com/joshuapare/cehive/internal/format"

// Entry is one object store entry queued for encoding.
type Entry struct {
	ID      uint32
	Type    format.EntryType
	Payload []byte
	// Freed writes the entry bytes but marks its slot as freed.
	Freed bool
	// Offset is assigned by Bytes, relative to format.DataBase.
	Offset uint32
}

// Builder lays entries out into sections. The zero value is not usable; call
// New.
type Builder struct {
	entries map[uint32]*Entry
	order   []uint32
	nextID  uint32
	// SlotsPerSection caps how many entries go into one section.
	SlotsPerSection int
	// FileType overrides the header file type word.
	FileType uint32
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{
		entries:         make(map[uint32]*Entry),
		nextID:          1,
		SlotsPerSection: format.SectionSlotCount,
		FileType:        format.FileTypeCE7,
	}
}

// NextID returns the id the next Add call will assign.
func (b *Builder) NextID() uint32 { return b.nextID }

// Reserve allocates an id without an entry; fill it later with Set.
func (b *Builder) Reserve() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

// Add queues an entry and returns its id.
func (b *Builder) Add(t format.EntryType, payload []byte) uint32 {
	id := b.Reserve()
	b.Set(id, t, payload)
	return id
}

// Set creates or replaces the entry with the given id.
func (b *Builder) Set(id uint32, t format.EntryType, payload []byte) {
	if _, ok := b.entries[id]; !ok {
		b.order = append(b.order, id)
	}
	b.entries[id] = &Entry{ID: id, Type: t, Payload: payload}
	if id >= b.nextID {
		b.nextID = id + 1
	}
}

// Free marks the entry's slot as freed.
func (b *Builder) Free(id uint32) {
	if e, ok := b.entries[id]; ok {
		e.Freed = true
	}
}

// Entry returns the queued entry with the given id.
func (b *Builder) Entry(id uint32) *Entry { return b.entries[id] }

// Layout is the result of encoding.
type Layout struct {
	Data     []byte
	Sections []uint32          // section offsets relative to format.DataBase
	Offsets  map[uint32]int    // entry id -> absolute entry offset
	Slots    map[uint32][2]int // entry id -> (section index, slot index)
}

// Bytes encodes the hive.
func (b *Builder) Bytes() []byte { return b.Build().Data }

// Build encodes the hive and reports where everything landed.
func (b *Builder) Build() Layout {
	per := b.SlotsPerSection
	if per <= 0 || per > format.SectionSlotCount {
		per = format.SectionSlotCount
	}
	ids := append([]uint32(nil), b.order...)

	type placed struct {
		sectionRel uint32
		slots      []uint32
	}
	var sections []placed
	out := make([]byte, format.DataBase)
	lay := Layout{Offsets: make(map[uint32]int), Slots: make(map[uint32][2]int)}

	for start := 0; start < len(ids) || len(sections) == 0; start += per {
		end := min(start+per, len(ids))
		secAbs := align4(len(out))
		out = grow(out, secAbs+format.SectionHeaderSize)
		format.PutU32(out, secAbs+format.SectionMagicOffset, format.SectionMagic)
		sec := placed{sectionRel: uint32(secAbs - format.DataBase)}
		for i, id := range ids[start:end] {
			e := b.entries[id]
			entAbs := align4(len(out))
			out = grow(out, entAbs+format.EntryHeaderSize+len(e.Payload))
			format.PutU32(out, entAbs+format.EntrySizeOffset, format.PackEntrySize(e.Type, uint32(len(e.Payload))))
			format.PutU32(out, entAbs+format.EntryIDOffset, e.ID)
			copy(out[entAbs+format.EntryPayloadOffset:], e.Payload)
			e.Offset = uint32(entAbs - format.DataBase)
			flags := uint32(format.SlotFlagLive)
			if e.Freed {
				flags = 0x2
			}
			format.PutU32(out, secAbs+format.SectionSlotsOffset+i*format.OffsetFieldSize, e.Offset|flags)
			lay.Offsets[id] = entAbs
			lay.Slots[id] = [2]int{len(sections), i}
		}
		sections = append(sections, sec)
		if end >= len(ids) {
			break
		}
	}

	out = grow(out, align4(len(out)))
	for i, s := range sections {
		format.PutU32(out, format.SectionTableOffset+i*format.OffsetFieldSize, s.sectionRel)
		lay.Sections = append(lay.Sections, s.sectionRel)
	}
	writeHeader(out, b.FileType)
	lay.Data = out
	return lay
}

func writeHeader(out []byte, fileType uint32) {
	format.PutU32(out, format.HeaderSizeOffset, format.HeaderDeclaredSize)
	copy(out[format.HeaderMagicOffset:], format.HiveMagic)
	format.PutU32(out, format.HeaderFileSizeOffset, uint32(len(out)))
	format.PutU32(out, format.HeaderFileTypeOffset, fileType)
	format.PutU32(out, format.HeaderBaseOffset, 0xcd4f5000)
	format.PutU32(out, format.HeaderIsRegHiveOffset, format.RegHiveMarker)
}

func align4(n int) int { return (n + 3) &^ 3 }

func grow(b []byte, n int) []byte {
	if n <= len(b) {
		return b
	}
	return append(b, make([]byte, n-len(b))...)
}
