package hive

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	arc "github.com/hashicorp/golang-lru/arc/v2"

	"github.com/joshuapare/cehive/internal/format"
	"github.com/joshuapare/cehive/internal/mmfile"
)

// Hive is a decoded CE7 hive. It is immutable once returned by Decode or
// Open and safe for concurrent use.
type Hive struct {
	data      []byte
	header    format.Header
	regionEnd int

	blocks     *BlockTable
	free       *FreeList
	cells      []Cell
	byID       map[uint32]int
	rootOffset int
	tree       *Tree
	anomalies  []Anomaly

	log    *slog.Logger
	lookup *arc.ARCCache[string, KeyID]

	closeOnce sync.Once
	closer    func() error
	closeErr  error
}

// decoder holds the state of a single Decode call.
type decoder struct {
	data      []byte
	regionEnd int
	opts      options
	log       *slog.Logger

	blocks     *BlockTable
	free       FreeList
	cells      []Cell
	byID       map[uint32]int
	byOffset   map[int]int
	freedByID  map[uint32]int
	rootOffset int
	anomalies  []Anomaly
}

// anomaly records a and returns its index. The key is always cleared; tree
// code attaches keys afterwards.
func (d *decoder) anomaly(a Anomaly) int {
	a.Key = NoKey
	d.anomalies = append(d.anomalies, a)
	d.log.Debug("anomaly", "kind", a.Kind.String(), "offset", a.Offset, "id", a.ID, "err", a.Err)
	return len(d.anomalies) - 1
}

// Decode decodes a CE7 hive held in data. The only error is one wrapping
// ErrNotAHive; every other problem is reported through Anomalies. The
// returned Hive references data, which must not be modified afterwards.
func Decode(data []byte, opts ...Option) (*Hive, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	hdr, err := format.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAHive, err)
	}

	d := &decoder{
		data:       data,
		regionEnd:  len(data),
		opts:       o,
		log:        o.logger,
		byID:       make(map[uint32]int),
		byOffset:   make(map[int]int),
		freedByID:  make(map[uint32]int),
		rootOffset: -1,
	}
	switch size := int(hdr.FileSize); {
	case size > len(data):
		d.anomaly(Anomaly{
			Kind:   CorruptBlockTable,
			Offset: format.HeaderFileSizeOffset,
			Err:    fmt.Errorf("declared file size %d exceeds buffer of %d bytes", size, len(data)),
		})
	case size >= format.DataBase:
		d.regionEnd = size
	}
	if !hdr.IsRegistryHive() {
		d.log.Debug("volume flags do not mark a registry hive",
			"is_reg_hive", hdr.IsRegHive, "is_db_volume", hdr.IsDBVolume)
	}

	d.blocks = d.parseBlockTable()
	d.scan()
	tree := d.buildTree()

	h := &Hive{
		data:       data,
		header:     hdr,
		regionEnd:  d.regionEnd,
		blocks:     d.blocks,
		free:       &d.free,
		cells:      d.cells,
		byID:       d.byID,
		rootOffset: d.rootOffset,
		tree:       tree,
		anomalies:  d.anomalies,
		log:        o.logger,
	}
	if o.cacheSize > 0 {
		h.lookup, _ = arc.NewARC[string, KeyID](o.cacheSize)
	}
	h.log.Debug("hive decoded",
		"size", len(data), "sections", d.blocks.Len(), "cells", len(d.cells),
		"keys", tree.NumKeys(), "values", tree.NumValues(), "anomalies", len(d.anomalies))
	return h, nil
}

// Open maps the file at path and decodes it. Call Close to release the
// mapping.
func Open(path string, opts ...Option) (*Hive, error) {
	data, release, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("hive: open %s: %w", path, err)
	}
	h, err := Decode(data, opts...)
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	h.closer = release
	return h, nil
}

// Close releases the file mapping of a Hive returned by Open. Slices
// obtained from the Hive must not be used afterwards. Close on a Hive from
// Decode is a no-op.
func (h *Hive) Close() error {
	if h == nil {
		return nil
	}
	h.closeOnce.Do(func() {
		if h.closer != nil {
			h.closeErr = h.closer()
		}
	})
	return h.closeErr
}

// Bytes returns the underlying buffer.
func (h *Hive) Bytes() []byte { return h.data }

// Header returns the decoded file header.
func (h *Hive) Header() format.Header { return h.header }

// Version returns the header file type word (0x1000 on CE7).
func (h *Hive) Version() uint32 { return h.header.FileType }

// TotalSize returns the buffer length in bytes.
func (h *Hive) TotalSize() int { return len(h.data) }

// RegionEnd returns the end of the region entries were read from: the
// declared file size when it is plausible, otherwise the buffer length.
func (h *Hive) RegionEnd() int { return h.regionEnd }

// RootOffset returns the absolute offset of the first ROOTS entry, or -1.
func (h *Hive) RootOffset() int { return h.rootOffset }

// Blocks returns the section table.
func (h *Hive) Blocks() *BlockTable { return h.blocks }

// FreeList returns the free space tracker.
func (h *Hive) FreeList() *FreeList { return h.free }

// Tree returns the decoded key tree.
func (h *Hive) Tree() *Tree { return h.tree }

// Anomalies returns every recorded anomaly in discovery order.
func (h *Hive) Anomalies() []Anomaly {
	out := make([]Anomaly, len(h.anomalies))
	copy(out, h.anomalies)
	return out
}

// Anomaly returns anomaly i.
func (h *Hive) Anomaly(i int) Anomaly { return h.anomalies[i] }

// NumCells returns the number of live entries decoded.
func (h *Hive) NumCells() int { return len(h.cells) }

// Cell returns live entry i in scan order.
func (h *Hive) Cell(i int) Cell { return h.cells[i] }

// CellByID returns the live entry with the given id. When ids collide the
// entry scanned last wins.
func (h *Hive) CellByID(id uint32) (Cell, bool) {
	i, ok := h.byID[id]
	if !ok {
		return Cell{}, false
	}
	return h.cells[i], true
}

// Find resolves a path such as HKLM\Software\Foo to a key. Components are
// separated by backslashes or slashes and matched case-insensitively. The
// empty path names the tree root.
func (h *Hive) Find(path string) (KeyID, bool) {
	parts := splitPath(path)
	norm := strings.ToUpper(strings.Join(parts, `\`))
	if h.lookup != nil {
		if id, ok := h.lookup.Get(norm); ok {
			return id, id != NoKey
		}
	}
	id := RootKey
	for _, p := range parts {
		next, ok := h.tree.Child(id, p)
		if !ok {
			id = NoKey
			break
		}
		id = next
	}
	if h.lookup != nil {
		h.lookup.Add(norm, id)
	}
	return id, id != NoKey
}

// Walk visits every key in pre-order starting at the tree root.
func (h *Hive) Walk(fn WalkFunc) error {
	return h.tree.Walk(RootKey, fn)
}

func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '\\' || r == '/' })
}
