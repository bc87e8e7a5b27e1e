package ce7

import "github.com/joshuapare/cehive/internal/format"

// Key describes a key to encode.
type Key struct {
	Name  string
	Flags uint16
	// Indexed stores the children behind an ET_INDEX hash table instead
	// of a sibling chain.
	Indexed  bool
	Children []*Key
	Values   []*Value
}

// Value describes a value to encode.
type Value struct {
	Name string
	Type uint16
	Data []byte
}

// Roots holds the top-level keys per ET_ROOTS slot. A root contributes its
// children, or its values when it has no children.
type Roots [format.RootsSlotCount]*Key

// Encode builds a complete hive holding r.
func Encode(r Roots) []byte {
	b := New()
	b.AddRoots(r)
	return b.Bytes()
}

// AddRoots queues r and its ET_ROOTS entry. It returns the roots entry id.
func (b *Builder) AddRoots(r Roots) uint32 {
	rootsID := b.Reserve()
	var ids [format.RootsSlotCount]uint32
	for i, root := range r {
		if root == nil {
			continue
		}
		switch {
		case len(root.Children) > 0:
			ids[i] = b.AddKeyList(root.Children)
		case len(root.Values) > 0:
			ids[i] = b.AddValueList(root.Values)
		}
	}
	b.Set(rootsID, format.EntryRoots, RootsPayload(ids))
	return rootsID
}

// AddKeyList queues keys as a sibling chain and returns the first id.
func (b *Builder) AddKeyList(keys []*Key) uint32 {
	if len(keys) == 0 {
		return format.NilID
	}
	ids := make([]uint32, len(keys))
	for i := range keys {
		ids[i] = b.Reserve()
	}
	for i, k := range keys {
		var next uint32
		if i+1 < len(ids) {
			next = ids[i+1]
		}
		b.setKey(ids[i], next, k)
	}
	return ids[0]
}

func (b *Builder) setKey(id, next uint32, k *Key) {
	var child uint32
	if k.Indexed && len(k.Children) > 0 {
		indexID := b.Reserve()
		entries := make([]format.IndexEntry, len(k.Children))
		for i, c := range k.Children {
			cid := b.Reserve()
			b.setKey(cid, format.NilID, c)
			entries[i] = format.IndexEntry{Hash: NameHash(c.Name), ID: cid}
		}
		b.Set(indexID, format.EntryIndex, IndexPayload(entries))
		child = indexID
	} else {
		child = b.AddKeyList(k.Children)
	}
	value := b.AddValueList(k.Values)
	b.Set(id, format.EntryKey, KeyPayload(next, child, value, k.Flags, k.Name))
}

// AddValueList queues values as a chain and returns the first id.
func (b *Builder) AddValueList(vals []*Value) uint32 {
	if len(vals) == 0 {
		return format.NilID
	}
	ids := make([]uint32, len(vals))
	for i := range vals {
		ids[i] = b.Reserve()
	}
	for i, v := range vals {
		var next uint32
		if i+1 < len(ids) {
			next = ids[i+1]
		}
		b.Set(ids[i], format.EntryValue, ValuePayload(next, v.Type, v.Name, v.Data))
	}
	return ids[0]
}
