package hive

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cehive/hive/values"
	"github.com/joshuapare/cehive/internal/format"
	"github.com/joshuapare/cehive/internal/testutil/ce7"
)

func dword(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// sampleRoots is a small HKLM/HKCU layout shared by several tests.
func sampleRoots() ce7.Roots {
	var r ce7.Roots
	r[1] = &ce7.Key{Values: []*ce7.Value{
		{Name: "Theme", Type: uint16(values.String), Data: ce7.UTF16Z("dark")},
	}}
	r[2] = &ce7.Key{Children: []*ce7.Key{
		{
			Name: "Software",
			Values: []*ce7.Value{
				{Name: "Version", Type: uint16(values.String), Data: ce7.UTF16Z("7.0")},
				{Name: "Build", Type: uint16(values.DWord), Data: dword(7)},
			},
			Children: []*ce7.Key{
				{Name: "Microsoft", Values: []*ce7.Value{
					{Name: "List", Type: uint16(values.MultiString), Data: ce7.MultiSZ("a", "b")},
				}},
			},
		},
		{Name: "System", Flags: 0x2},
	}}
	return r
}

func mustDecode(t *testing.T, data []byte, opts ...Option) *Hive {
	t.Helper()
	h, err := Decode(data, opts...)
	require.NoError(t, err)
	require.NotNil(t, h)
	return h
}

func countKind(h *Hive, k AnomalyKind) int {
	n := 0
	for _, a := range h.Anomalies() {
		if a.Kind == k {
			n++
		}
	}
	return n
}

func mustFind(t *testing.T, h *Hive, path string) Key {
	t.Helper()
	id, ok := h.Find(path)
	require.True(t, ok, "path %q not found", path)
	return h.Tree().Key(id)
}

func findValue(t *testing.T, h *Hive, path, name string) Value {
	t.Helper()
	id, ok := h.Find(path)
	require.True(t, ok, "path %q not found", path)
	vid, ok := h.Tree().ValueByName(id, name)
	require.True(t, ok, "value %q not found under %q", name, path)
	return h.Tree().Value(vid)
}

// requireSameTree compares the subtree at id with the encoder input.
func requireSameTree(t *testing.T, want *ce7.Key, tree *Tree, id KeyID) {
	t.Helper()
	got := tree.Key(id)
	if !got.Synthetic {
		require.Equal(t, want.Name, got.Name)
	}
	require.Equal(t, want.Flags, got.Flags, "flags of %s", tree.Path(id))
	require.Len(t, got.Values, len(want.Values), "values of %s", tree.Path(id))
	for i, wv := range want.Values {
		gv := tree.Value(got.Values[i])
		require.Equal(t, wv.Name, gv.Name)
		require.Equal(t, values.Type(wv.Type), gv.Type)
		require.Equal(t, wv.Data, gv.Raw)
	}
	require.Len(t, got.Children, len(want.Children), "children of %s", tree.Path(id))
	for i, wc := range want.Children {
		requireSameTree(t, wc, tree, got.Children[i])
	}
}

func TestDecodeRejectsNonHive(t *testing.T) {
	_, err := Decode(make([]byte, format.HeaderMinSize-1))
	require.ErrorIs(t, err, ErrNotAHive)
	require.ErrorIs(t, err, format.ErrTruncated)

	data := ce7.Encode(sampleRoots())
	copy(data[format.HeaderMagicOffset:], "regf")
	_, err = Decode(data)
	require.ErrorIs(t, err, ErrNotAHive)
	require.ErrorIs(t, err, format.ErrSignatureMismatch)

	_, err = Decode(nil)
	require.ErrorIs(t, err, ErrNotAHive)
}

func TestDecodeRoundTrip(t *testing.T) {
	roots := sampleRoots()
	h := mustDecode(t, ce7.Encode(roots))
	require.Empty(t, h.Anomalies())
	require.Equal(t, uint32(format.FileTypeCE7), h.Version())
	require.GreaterOrEqual(t, h.RootOffset(), format.DataBase)

	tree := h.Tree()
	root := tree.Key(tree.Root())
	require.True(t, root.Synthetic)
	require.Equal(t, NoKey, root.Parent)
	require.Len(t, root.Children, 2)
	require.Equal(t, "HKCU", tree.Key(root.Children[0]).Name)
	require.Equal(t, "HKLM", tree.Key(root.Children[1]).Name)

	for slot, want := range roots {
		if want == nil {
			continue
		}
		id, ok := h.Find(format.RootName(slot))
		require.True(t, ok)
		require.True(t, tree.Key(id).Synthetic)
		requireSameTree(t, want, tree, id)
	}
}

func TestDecodeTypedValues(t *testing.T) {
	h := mustDecode(t, ce7.Encode(sampleRoots()))

	build := findValue(t, h, `HKLM\Software`, "Build")
	require.Equal(t, values.KindUint32, build.Data.Kind)
	require.Equal(t, uint64(7), build.Data.Uint)
	require.NoError(t, build.Data.Err)

	list := findValue(t, h, `HKLM\Software\Microsoft`, "List")
	require.Equal(t, values.KindStrings, list.Data.Kind)
	require.Equal(t, []string{"a", "b"}, list.Data.Strs)

	theme := findValue(t, h, "HKCU", "theme")
	require.Equal(t, "dark", theme.Data.Str)
}

func TestChildrenKeepListOrder(t *testing.T) {
	var r ce7.Roots
	r[2] = &ce7.Key{Children: []*ce7.Key{{Name: "Zeta"}, {Name: "alpha"}, {Name: "Mid"}}}
	h := mustDecode(t, ce7.Encode(r))

	hklm := mustFind(t, h, "HKLM")
	var names []string
	for _, c := range hklm.Children {
		names = append(names, h.Tree().Key(c).Name)
	}
	require.Equal(t, []string{"Zeta", "alpha", "Mid"}, names)
}

func TestHashTableChildren(t *testing.T) {
	var r ce7.Roots
	r[2] = &ce7.Key{Children: []*ce7.Key{{
		Name:    "Drivers",
		Indexed: true,
		Children: []*ce7.Key{
			{Name: "USB", Values: []*ce7.Value{{Name: "Dll", Type: uint16(values.String), Data: ce7.UTF16Z("usb.dll")}}},
			{Name: "Serial"},
			{Name: "Audio", Indexed: true, Children: []*ce7.Key{{Name: "Wave"}}},
		},
	}}}
	h := mustDecode(t, ce7.Encode(r))
	require.Empty(t, h.Anomalies())

	id, ok := h.Find("HKLM")
	require.True(t, ok)
	requireSameTree(t, r[2], h.Tree(), id)
	require.Equal(t, "usb.dll", findValue(t, h, `HKLM\Drivers\USB`, "Dll").Data.Str)
	mustFind(t, h, `HKLM\Drivers\Audio\Wave`)
}

func TestRootSlotNames(t *testing.T) {
	var r ce7.Roots
	r[0] = &ce7.Key{Children: []*ce7.Key{{Name: "CLSID"}}}
	r[3] = &ce7.Key{Children: []*ce7.Key{{Name: "Default"}}}
	r[6] = &ce7.Key{Children: []*ce7.Key{{Name: "Extra"}}}
	h := mustDecode(t, ce7.Encode(r))

	mustFind(t, h, `HKCR\CLSID`)
	mustFind(t, h, `HKU\Default`)
	mustFind(t, h, `ROOT6\Extra`)
}

func TestFind(t *testing.T) {
	data := ce7.Encode(sampleRoots())
	cached := mustDecode(t, data)
	uncached := mustDecode(t, data, WithLookupCacheSize(0))

	paths := []string{
		`HKLM\Software\Microsoft`,
		`hklm\SOFTWARE\microsoft`,
		`/HKLM/Software/Microsoft/`,
		`HKLM\\Software`,
		`HKLM\Missing`,
		`HKCU`,
		``,
	}
	for _, p := range paths {
		for range 2 {
			a, okA := cached.Find(p)
			b, okB := uncached.Find(p)
			require.Equal(t, okB, okA, p)
			require.Equal(t, b, a, p)
		}
	}

	id, ok := cached.Find(`hklm/software/MICROSOFT`)
	require.True(t, ok)
	require.Equal(t, `HKLM\Software\Microsoft`, cached.Tree().Path(id))

	_, ok = cached.Find(`HKLM\Software\Nope`)
	require.False(t, ok)

	root, ok := cached.Find("")
	require.True(t, ok)
	require.Equal(t, RootKey, root)
}

func TestFlatten(t *testing.T) {
	h := mustDecode(t, ce7.Encode(sampleRoots()))
	flat := h.Tree().Flatten()

	var paths []string
	for _, e := range flat {
		paths = append(paths, e.Path)
	}
	require.Equal(t, []string{
		"/HKCU/Theme",
		"/HKLM/Software/Build",
		"/HKLM/Software/Microsoft/List",
		"/HKLM/Software/Version",
	}, paths)
	require.Equal(t, "7.0", h.Tree().Value(flat[3].Value).Data.Str)
}

func TestWalk(t *testing.T) {
	h := mustDecode(t, ce7.Encode(sampleRoots()))

	var visited []string
	err := h.Walk(func(id KeyID, depth int) error {
		visited = append(visited, h.Tree().Path(id))
		if h.Tree().Key(id).Name == "Software" {
			return SkipChildren
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"", "HKCU", "HKLM", `HKLM\Software`, `HKLM\System`}, visited)

	stop := os.ErrClosed
	n := 0
	err = h.Walk(func(KeyID, int) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 2, n)
}

func TestDecodeIsDeterministic(t *testing.T) {
	b := ce7.New()
	b.AddRoots(sampleRoots())
	b.Add(format.EntryType(0x3), []byte{1, 2, 3, 4})
	data := b.Bytes()

	a := mustDecode(t, data)
	c := mustDecode(t, data)
	require.Equal(t, a.Tree().Flatten(), c.Tree().Flatten())
	require.Equal(t, a.Anomalies(), c.Anomalies())
	require.Equal(t, a.NumCells(), c.NumCells())
}

func TestCellAccessors(t *testing.T) {
	b := ce7.New()
	rootsID := b.AddRoots(sampleRoots())
	lay := b.Build()
	h := mustDecode(t, lay.Data)

	c, ok := h.CellByID(rootsID)
	require.True(t, ok)
	require.Equal(t, CellRoots, c.Kind)
	require.Equal(t, format.EntryRoots, c.Type)
	require.Equal(t, lay.Offsets[rootsID], c.Offset)
	require.Equal(t, h.RootOffset(), c.Offset)
	require.NoError(t, c.Err)

	_, ok = h.CellByID(0xFFFF)
	require.False(t, ok)

	kinds := map[CellKind]int{}
	for i := range h.NumCells() {
		kinds[h.Cell(i).Kind]++
	}
	require.Equal(t, 1, kinds[CellRoots])
	require.Equal(t, 3, kinds[CellKey])
	require.Equal(t, 4, kinds[CellValue])
}

func TestOpenAndClose(t *testing.T) {
	h, err := Open(ce7.WriteFile(t, "system.hv", ce7.Encode(sampleRoots())))
	require.NoError(t, err)
	require.Equal(t, "7.0", findValue(t, h, `HKLM\Software`, "Version").Data.Str)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.hv"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Open(ce7.WriteFile(t, "junk.hv", []byte("not a hive")))
	require.ErrorIs(t, err, ErrNotAHive)
}
