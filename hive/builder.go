package hive

import (
	"fmt"
	"strings"

	"github.com/joshuapare/cehive/hive/values"
	"github.com/joshuapare/cehive/internal/format"
)

// frame is one unit of work for the tree builder. An exit frame removes
// its entry from the ancestor path.
type frame struct {
	key       KeyID
	entry     uint32
	childHead uint32
	valueHead uint32
	depth     int
	exit      bool
}

// resolved is the outcome of following one entry id.
type resolved struct {
	cell  Cell
	found bool // the entry header was decoded
	ok    bool // the entry decoded cleanly
	freed bool
	err   error
	// kind is the anomaly to record when !ok. Zero means the problem was
	// recorded during the scan and cell.anomaly points at it.
	kind AnomalyKind
}

type treeBuilder struct {
	d          *decoder
	t          *Tree
	maxDepth   int
	placed     map[uint32]KeyID
	placedVals map[uint32]ValueID
	onPath     map[uint32]struct{}
	stack      []frame
}

// buildTree links the scanned cells into a Tree, starting from every ROOTS
// entry. The walk is iterative so hostile nesting cannot exhaust the
// goroutine stack.
func (d *decoder) buildTree() *Tree {
	b := &treeBuilder{
		d:          d,
		t:          newTree(),
		maxDepth:   d.opts.maxDepth,
		placed:     make(map[uint32]KeyID),
		placedVals: make(map[uint32]ValueID),
		onPath:     make(map[uint32]struct{}),
	}
	b.seedRoots()
	b.run()
	b.attachDetached()
	b.t.indexNames()
	d.log.Debug("tree built", "keys", b.t.NumKeys(), "values", b.t.NumValues())
	return b.t
}

func (b *treeBuilder) seedRoots() {
	var seeds []frame
	found := false
	for idx, c := range b.d.cells {
		if c.Kind != CellRoots || b.d.byID[c.ID] != idx || c.Err != nil {
			continue
		}
		found = true
		if b.d.rootOffset < 0 {
			b.d.rootOffset = c.Offset
		}
		for slot, id := range c.Roots {
			if id == format.NilID {
				continue
			}
			rk := b.rootKey(format.RootName(slot))
			f := frame{key: rk, depth: 1}
			if i, ok := b.d.byID[id]; ok && b.d.cells[i].Kind == CellValue {
				f.valueHead = id
			} else {
				f.childHead = id
			}
			seeds = append(seeds, f)
		}
	}
	if !found {
		b.d.anomaly(Anomaly{Kind: MissingRoots, Offset: -1, Err: fmt.Errorf("no %s entry", format.EntryRoots)})
	}
	for i := len(seeds) - 1; i >= 0; i-- {
		b.stack = append(b.stack, seeds[i])
	}
}

// attachDetached hands anomalies no key claimed to the tree root: block
// table damage, duplicate ids and bad entries nothing references.
func (b *treeBuilder) attachDetached() {
	for idx := range b.d.anomalies {
		if b.d.anomalies[idx].Key != NoKey {
			continue
		}
		b.d.anomalies[idx].Key = RootKey
		b.t.keys[RootKey].Anomalies = append(b.t.keys[RootKey].Anomalies, idx)
	}
}

// rootKey returns the predefined root named name, creating it on first use.
// ROOTS entries naming the same root merge into one key.
func (b *treeBuilder) rootKey(name string) KeyID {
	for _, id := range b.t.keys[RootKey].Children {
		if strings.EqualFold(b.t.keys[id].Name, name) {
			return id
		}
	}
	return b.t.addKey(Key{Name: name, Parent: RootKey, Offset: -1, Synthetic: true})
}

func (b *treeBuilder) run() {
	for len(b.stack) > 0 {
		f := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
		if f.exit {
			delete(b.onPath, f.entry)
			continue
		}
		if f.entry != format.NilID {
			b.onPath[f.entry] = struct{}{}
			b.stack = append(b.stack, frame{entry: f.entry, exit: true})
		}
		b.values(f.key, f.valueHead)
		children := b.children(f.key, f.childHead, f.depth+1)
		for i := len(children) - 1; i >= 0; i-- {
			b.stack = append(b.stack, children[i])
		}
	}
}

// resolve follows id to a live cell, a freed entry, or nothing.
func (b *treeBuilder) resolve(id uint32) resolved {
	if idx, ok := b.d.byID[id]; ok {
		c := b.d.cells[idx]
		r := resolved{cell: c, found: true}
		if c.Err != nil {
			r.err = c.Err
			return r
		}
		r.ok = true
		r.freed = b.d.free.Overlaps(c.Offset, c.End())
		return r
	}
	if off, ok := b.d.freedByID[id]; ok {
		c, hdr, a := b.d.decodeCell(off)
		r := resolved{cell: c, found: hdr, freed: true}
		if a != nil {
			r.err = fmt.Errorf("freed entry 0x%X: %w", id, a.Err)
			r.kind = MalformedCell
			return r
		}
		r.ok = true
		return r
	}
	return resolved{err: fmt.Errorf("%w 0x%X", errDangling, id), kind: DanglingReference}
}

func (b *treeBuilder) offsetOf(id uint32) int {
	if idx, ok := b.d.byID[id]; ok {
		return b.d.cells[idx].Offset
	}
	if off, ok := b.d.freedByID[id]; ok {
		return off
	}
	return -1
}

func (b *treeBuilder) attach(key KeyID, a Anomaly) {
	idx := b.d.anomaly(a)
	b.d.anomalies[idx].Key = key
	b.t.keys[key].Anomalies = append(b.t.keys[key].Anomalies, idx)
}

func (b *treeBuilder) attachValue(v ValueID, a Anomaly) {
	idx := b.d.anomaly(a)
	b.d.anomalies[idx].Key = b.t.values[v].Parent
	b.t.values[v].Anomalies = append(b.t.values[v].Anomalies, idx)
}

// failure records why r could not be used, returning the anomaly index.
func (b *treeBuilder) failure(id uint32, r resolved, owner KeyID) int {
	if r.kind == 0 {
		idx := r.cell.anomaly
		if idx >= 0 && b.d.anomalies[idx].Key == NoKey {
			b.d.anomalies[idx].Key = owner
		}
		return idx
	}
	off := -1
	if r.found {
		off = r.cell.Offset
	}
	idx := b.d.anomaly(Anomaly{Kind: r.kind, Offset: off, ID: id, Err: r.err})
	b.d.anomalies[idx].Key = owner
	return idx
}

func (b *treeBuilder) repeated(parent KeyID, id uint32) {
	b.attach(parent, Anomaly{
		Kind:   CycleDetected,
		Offset: b.offsetOf(id),
		ID:     id,
		Err:    fmt.Errorf("%w: entry 0x%X repeats in one list", errCycle, id),
	})
}

// children creates the child keys of parent reachable from head and
// returns the frames of those that should be expanded.
func (b *treeBuilder) children(parent KeyID, head uint32, depth int) []frame {
	if head == format.NilID {
		return nil
	}
	var out []frame
	seen := make(map[uint32]struct{})

	if first := b.resolve(head); first.ok && first.cell.Kind == CellHashTable {
		suspect := first.freed
		if first.freed {
			b.attach(parent, Anomaly{Kind: UseOfFreedCell, Offset: first.cell.Offset, ID: head, Err: errFreed})
		}
		// Hash table members are resolved individually; their sibling
		// links are not followed.
		for _, e := range first.cell.Index {
			if e.ID == format.NilID {
				continue
			}
			if _, dup := seen[e.ID]; dup {
				b.repeated(parent, e.ID)
				continue
			}
			seen[e.ID] = struct{}{}
			if f, _, expand, _ := b.child(parent, e.ID, depth, suspect); expand {
				out = append(out, f)
			}
		}
		return out
	}

	for id := head; id != format.NilID; {
		if _, dup := seen[id]; dup {
			b.repeated(parent, id)
			break
		}
		seen[id] = struct{}{}
		f, next, expand, more := b.child(parent, id, depth, false)
		if expand {
			out = append(out, f)
		}
		if !more {
			break
		}
		id = next
	}
	return out
}

// child places the key with entry id under parent. next is its sibling
// link; more is false when the sibling chain cannot be followed further.
func (b *treeBuilder) child(parent KeyID, id uint32, depth int, suspect bool) (f frame, next uint32, expand, more bool) {
	if kid, placed := b.placed[id]; placed {
		if _, loop := b.onPath[id]; loop {
			b.attach(parent, Anomaly{
				Kind:   CycleDetected,
				Offset: b.offsetOf(id),
				ID:     id,
				Err:    fmt.Errorf("%w: %s is an ancestor", errCycle, b.t.Path(kid)),
			})
		} else {
			b.attach(parent, Anomaly{
				Kind:   MultipleParents,
				Offset: b.offsetOf(id),
				ID:     id,
				Err:    fmt.Errorf("%w: %s", errShared, b.t.Path(kid)),
			})
		}
		return frame{}, 0, false, false
	}

	r := b.resolve(id)
	if r.ok && r.cell.Kind != CellKey {
		r.ok = false
		r.kind = MalformedCell
		r.err = fmt.Errorf("%w: entry 0x%X is %s, want %s", errWrongKind, id, r.cell.Type, format.EntryKey)
	}
	k := Key{
		EntryID: id,
		Offset:  -1,
		Parent:  parent,
		Suspect: suspect || r.freed || b.t.keys[parent].Suspect,
	}
	if r.found {
		k.Offset = r.cell.Offset
	}

	if !r.ok {
		k.Placeholder = true
		k.Err = r.err
		kid := b.t.addKey(k)
		if r.freed {
			b.attach(kid, Anomaly{Kind: UseOfFreedCell, Offset: k.Offset, ID: id, Err: errFreed})
		}
		if idx := b.failure(id, r, kid); idx >= 0 {
			b.t.keys[kid].Anomalies = append(b.t.keys[kid].Anomalies, idx)
		}
		return frame{}, 0, false, false
	}

	rec := r.cell.Key
	k.Flags = rec.Flags
	k.Name, k.Err = rec.Name()
	kid := b.t.addKey(k)
	b.placed[id] = kid
	if r.freed {
		b.attach(kid, Anomaly{Kind: UseOfFreedCell, Offset: k.Offset, ID: id, Err: errFreed})
	}

	f = frame{key: kid, entry: id, childHead: rec.FirstChild, valueHead: rec.FirstValue, depth: depth}
	if depth > b.maxDepth {
		b.attach(kid, Anomaly{
			Kind:   DepthLimit,
			Offset: k.Offset,
			ID:     id,
			Err:    fmt.Errorf("%w (%d)", errDepth, b.maxDepth),
		})
		return f, rec.NextSibling, false, true
	}
	return f, rec.NextSibling, true, true
}

// values attaches the value chain starting at head to key.
func (b *treeBuilder) values(key KeyID, head uint32) {
	seen := make(map[uint32]struct{})
	for id := head; id != format.NilID; {
		if _, dup := seen[id]; dup {
			b.repeated(key, id)
			return
		}
		seen[id] = struct{}{}
		if other, placed := b.placedVals[id]; placed {
			b.attach(key, Anomaly{
				Kind:   MultipleParents,
				Offset: b.offsetOf(id),
				ID:     id,
				Err:    fmt.Errorf("%w: value of %s", errShared, b.t.Path(b.t.values[other].Parent)),
			})
			return
		}

		r := b.resolve(id)
		if r.ok && r.cell.Kind != CellValue {
			r.ok = false
			r.kind = MalformedCell
			r.err = fmt.Errorf("%w: entry 0x%X is %s, want %s", errWrongKind, id, r.cell.Type, format.EntryValue)
		}
		v := Value{
			EntryID: id,
			Offset:  -1,
			Parent:  key,
			Suspect: r.freed || b.t.keys[key].Suspect,
		}
		if r.found {
			v.Offset = r.cell.Offset
		}

		if !r.ok {
			v.Placeholder = true
			v.Err = r.err
			vid := b.t.addValue(v)
			if r.freed {
				b.attachValue(vid, Anomaly{Kind: UseOfFreedCell, Offset: v.Offset, ID: id, Err: errFreed})
			}
			if idx := b.failure(id, r, key); idx >= 0 {
				b.t.values[vid].Anomalies = append(b.t.values[vid].Anomalies, idx)
			}
			return
		}

		rec := r.cell.Value
		v.Name, v.Err = rec.Name()
		v.Type = values.Type(rec.Type)
		v.Raw = rec.Data
		v.Data = values.Decode(v.Type, rec.Data)
		vid := b.t.addValue(v)
		b.placedVals[id] = vid
		if r.freed {
			b.attachValue(vid, Anomaly{Kind: UseOfFreedCell, Offset: v.Offset, ID: id, Err: errFreed})
		}
		if v.Data.Err != nil {
			b.attachValue(vid, Anomaly{Kind: MalformedValue, Offset: v.Offset, ID: id, Err: v.Data.Err})
		}
		id = rec.Next
	}
}
