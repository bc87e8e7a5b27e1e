package hive

import (
	"errors"
	"slices"
	"strings"

	farm "github.com/dgryski/go-farm"

	"github.com/joshuapare/cehive/hive/values"
)

// KeyID indexes a key in a Tree.
type KeyID int32

// ValueID indexes a value in a Tree.
type ValueID int32

// NoKey is the parent of the tree root.
const NoKey KeyID = -1

// RootKey is the synthetic key every predefined root hangs from.
const RootKey KeyID = 0

// Key is a registry key. Offset is the absolute entry offset, or -1 for
// synthetic keys (the tree root and the predefined roots such as HKLM).
// A placeholder stands in for a reference that could not be resolved; Err
// says why. Suspect keys were reached through freed space.
type Key struct {
	Name        string
	EntryID     uint32
	Offset      int
	Flags       uint16
	Parent      KeyID
	Children    []KeyID
	Values      []ValueID
	Synthetic   bool
	Placeholder bool
	Suspect     bool
	Err         error
	// Anomalies indexes Hive.Anomalies.
	Anomalies []int
}

// Value is a typed registry value. Raw aliases the hive buffer.
type Value struct {
	Name        string
	EntryID     uint32
	Offset      int
	Type        values.Type
	Raw         []byte
	Data        values.Decoded
	Parent      KeyID
	Placeholder bool
	Suspect     bool
	Err         error
	Anomalies   []int
}

type nameKey struct {
	parent KeyID
	hash   uint64
}

// Tree is the decoded key hierarchy. Keys and values live in arenas and
// reference each other by index.
type Tree struct {
	keys   []Key
	values []Value
	names  map[nameKey][]KeyID
}

func newTree() *Tree {
	t := &Tree{}
	t.keys = append(t.keys, Key{Parent: NoKey, Offset: -1, Synthetic: true})
	return t
}

func (t *Tree) addKey(k Key) KeyID {
	id := KeyID(len(t.keys))
	t.keys = append(t.keys, k)
	if k.Parent != NoKey {
		p := &t.keys[k.Parent]
		p.Children = append(p.Children, id)
	}
	return id
}

func (t *Tree) addValue(v Value) ValueID {
	id := ValueID(len(t.values))
	t.values = append(t.values, v)
	p := &t.keys[v.Parent]
	p.Values = append(p.Values, id)
	return id
}

func foldHash(name string) uint64 {
	return farm.Hash64([]byte(strings.ToUpper(name)))
}

func (t *Tree) indexNames() {
	t.names = make(map[nameKey][]KeyID, len(t.keys))
	for i := 1; i < len(t.keys); i++ {
		k := &t.keys[i]
		nk := nameKey{parent: k.Parent, hash: foldHash(k.Name)}
		t.names[nk] = append(t.names[nk], KeyID(i))
	}
}

// Root returns the synthetic root key.
func (t *Tree) Root() KeyID { return RootKey }

// NumKeys returns the number of keys, including synthetic ones.
func (t *Tree) NumKeys() int { return len(t.keys) }

// NumValues returns the number of values.
func (t *Tree) NumValues() int { return len(t.values) }

// Key returns the key with the given id. The slices in the result are
// shared with the tree and must not be modified.
func (t *Tree) Key(id KeyID) Key { return t.keys[id] }

// Value returns the value with the given id.
func (t *Tree) Value(id ValueID) Value { return t.values[id] }

// Child returns the first child of parent whose name matches name
// case-insensitively.
func (t *Tree) Child(parent KeyID, name string) (KeyID, bool) {
	for _, id := range t.names[nameKey{parent: parent, hash: foldHash(name)}] {
		if strings.EqualFold(t.keys[id].Name, name) {
			return id, true
		}
	}
	return NoKey, false
}

// ValueByName returns the first value of key whose name matches name
// case-insensitively. The empty name selects the default value.
func (t *Tree) ValueByName(key KeyID, name string) (ValueID, bool) {
	for _, id := range t.keys[key].Values {
		if strings.EqualFold(t.values[id].Name, name) {
			return id, true
		}
	}
	return -1, false
}

// PathParts returns the names from the first predefined root down to id.
// The root key has no parts.
func (t *Tree) PathParts(id KeyID) []string {
	var parts []string
	for cur := id; cur != RootKey && cur != NoKey; cur = t.keys[cur].Parent {
		parts = append(parts, t.keys[cur].Name)
	}
	slices.Reverse(parts)
	return parts
}

// Path returns the backslash-separated path of id, e.g. HKLM\Software.
func (t *Tree) Path(id KeyID) string {
	return strings.Join(t.PathParts(id), `\`)
}

// SkipChildren may be returned by a WalkFunc to skip the children of the
// current key.
var SkipChildren = errors.New("hive: skip children")

// WalkFunc is called for every key visited by Walk. depth is 0 for the
// starting key.
type WalkFunc func(id KeyID, depth int) error

// Walk visits the subtree rooted at start in pre-order, children in list
// order. Any error other than SkipChildren stops the walk and is returned.
func (t *Tree) Walk(start KeyID, fn WalkFunc) error {
	type item struct {
		id    KeyID
		depth int
	}
	stack := []item{{id: start}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		err := fn(it.id, it.depth)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		children := t.keys[it.id].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{id: children[i], depth: it.depth + 1})
		}
	}
	return nil
}

// FlatEntry is one value addressed by its full path.
type FlatEntry struct {
	// Path is slash-separated and rooted, e.g. /HKLM/Software/Version.
	Path  string
	Key   KeyID
	Value ValueID
}

// Flatten lists every value by path, sorted by path. Values that share a
// path keep tree order.
func (t *Tree) Flatten() []FlatEntry {
	var out []FlatEntry
	_ = t.Walk(RootKey, func(id KeyID, _ int) error {
		k := t.keys[id]
		if len(k.Values) == 0 {
			return nil
		}
		prefix := "/" + strings.Join(t.PathParts(id), "/")
		if id == RootKey {
			prefix = ""
		}
		for _, vid := range k.Values {
			out = append(out, FlatEntry{Path: prefix + "/" + t.values[vid].Name, Key: id, Value: vid})
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b FlatEntry) int { return strings.Compare(a.Path, b.Path) })
	return out
}
