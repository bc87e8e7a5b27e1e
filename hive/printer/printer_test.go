package printer

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cehive/hive"
	"github.com/joshuapare/cehive/hive/values"
	"github.com/joshuapare/cehive/internal/format"
	"github.com/joshuapare/cehive/internal/testutil/ce7"
)

func sampleHive(t *testing.T) *hive.Hive {
	t.Helper()
	build := make([]byte, 4)
	binary.LittleEndian.PutUint32(build, 7)

	var r ce7.Roots
	r[1] = &ce7.Key{Values: []*ce7.Value{
		{Name: "Theme", Type: uint16(values.String), Data: ce7.UTF16Z("dark")},
	}}
	r[2] = &ce7.Key{Children: []*ce7.Key{
		{
			Name: "Software",
			Values: []*ce7.Value{
				{Name: "Version", Type: uint16(values.String), Data: ce7.UTF16Z(`7.0 "CE"`)},
				{Name: "Build", Type: uint16(values.DWord), Data: build},
				{Name: "Blob", Type: uint16(values.Binary), Data: []byte{0xde, 0xad, 0xbe, 0xef}},
			},
			Children: []*ce7.Key{
				{Name: "Microsoft", Values: []*ce7.Value{
					{Name: "List", Type: uint16(values.MultiString), Data: ce7.MultiSZ("a", "b")},
					{Name: "", Type: uint16(values.String), Data: ce7.UTF16Z("default")},
				}},
			},
		},
	}}
	h, err := hive.Decode(ce7.Encode(r))
	require.NoError(t, err)
	require.Empty(t, h.Anomalies())
	return h
}

func find(t *testing.T, h *hive.Hive, path string) hive.KeyID {
	t.Helper()
	id, ok := h.Find(path)
	require.True(t, ok, path)
	return id
}

func render(t *testing.T, h *hive.Hive, opts Options, fn func(p *Printer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(New(h.Tree(), &buf, opts)))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, f)

	_, err = ParseFormat("yaml")
	require.Error(t, err)
}

func TestPrintKeyText(t *testing.T) {
	h := sampleHive(t)
	out := render(t, h, DefaultOptions(), func(p *Printer) error {
		return p.PrintKey(find(t, h, `HKLM\Software`))
	})

	require.Contains(t, out, "[Software]\n")
	require.Contains(t, out, `"Version" [REG_SZ] = "7.0 \"CE\""`)
	require.Contains(t, out, `"Build" [REG_DWORD] = 0x00000007 (7)`)
	require.Contains(t, out, `"Blob" [REG_BINARY] = DEADBEEF`)
	require.NotContains(t, out, "Microsoft")
}

func TestPrintTreeText(t *testing.T) {
	h := sampleHive(t)
	out := render(t, h, DefaultOptions(), func(p *Printer) error {
		return p.PrintTree(h.Tree().Root())
	})

	for _, want := range []string{"[\\]", "  [HKCU]", "  [HKLM]", "    [Software]", "      [Microsoft]", `"(Default)" [REG_SZ] = "default"`} {
		require.Contains(t, out, want)
	}
	require.Less(t, strings.Index(out, "[HKCU]"), strings.Index(out, "[HKLM]"))
}

func TestPrintTreeMaxDepth(t *testing.T) {
	h := sampleHive(t)
	opts := DefaultOptions()
	opts.MaxDepth = 2
	out := render(t, h, opts, func(p *Printer) error {
		return p.PrintTree(h.Tree().Root())
	})

	require.Contains(t, out, "[HKLM]")
	require.NotContains(t, out, "[Software]")
}

func TestPrintMetadata(t *testing.T) {
	h := sampleHive(t)
	opts := DefaultOptions()
	opts.PrintMetadata = true
	opts.ShowValues = false
	out := render(t, h, opts, func(p *Printer) error {
		return p.PrintKey(find(t, h, `HKLM\Software`))
	})

	require.Contains(t, out, "Entry: 0x")
	require.Contains(t, out, "Subkeys: 1, Values: 3")
	require.NotContains(t, out, "Version")
}

func TestPrintValueTruncates(t *testing.T) {
	h := sampleHive(t)
	vid, ok := h.Tree().ValueByName(find(t, h, `HKLM\Software`), "blob")
	require.True(t, ok)

	opts := DefaultOptions()
	opts.MaxValueBytes = 2
	out := render(t, h, opts, func(p *Printer) error { return p.PrintValue(vid) })
	require.Equal(t, "\"Blob\" [REG_BINARY] = DEAD (truncated, 4 total bytes)\n", out)
}

func TestPrintTreeJSON(t *testing.T) {
	h := sampleHive(t)
	opts := DefaultOptions()
	opts.Format = FormatJSON
	out := render(t, h, opts, func(p *Printer) error {
		return p.PrintTree(find(t, h, "HKLM"))
	})

	var doc jsonKey
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, "HKLM", doc.Name)
	require.Len(t, doc.Children, 1)

	sw := doc.Children[0]
	require.Equal(t, "Software", sw.Name)
	require.Equal(t, `HKLM\Software`, sw.Path)
	require.Len(t, sw.Values, 3)
	require.Equal(t, "REG_DWORD", sw.Values[1].Type)
	require.EqualValues(t, 7, sw.Values[1].Data)
	require.Equal(t, "deadbeef", sw.Values[2].Data)

	ms := sw.Children[0]
	require.Equal(t, []interface{}{"a", "b"}, ms.Values[0].Data)
}

func TestPrintTreeReg(t *testing.T) {
	h := sampleHive(t)
	opts := DefaultOptions()
	opts.Format = FormatReg
	out := render(t, h, opts, func(p *Printer) error {
		return p.PrintTree(find(t, h, "HKLM"))
	})

	require.True(t, strings.HasPrefix(out, regHeader))
	require.Contains(t, out, "[HKEY_LOCAL_MACHINE\\Software]\n")
	require.Contains(t, out, `"Version"="7.0 \"CE\""`)
	require.Contains(t, out, `"Build"=dword:00000007`)
	require.Contains(t, out, `"Blob"=hex:de,ad,be,ef`)
	require.Contains(t, out, `"List"=hex(7):61,00,00,00,62,00,00,00,00,00`)
	require.Contains(t, out, `@="default"`)
}

func TestPrintFlat(t *testing.T) {
	h := sampleHive(t)
	opts := DefaultOptions()
	opts.Format = FormatFlat
	out := render(t, h, opts, func(p *Printer) error {
		return p.PrintTree(h.Tree().Root())
	})

	require.Equal(t, strings.Join([]string{
		`/HKCU/Theme [REG_SZ] = "dark"`,
		`/HKLM/Software/Blob [REG_BINARY] = DEADBEEF`,
		`/HKLM/Software/Build [REG_DWORD] = 0x00000007 (7)`,
		`/HKLM/Software/Microsoft/ [REG_SZ] = "default"`,
		`/HKLM/Software/Microsoft/List [REG_MULTI_SZ] = ["a", "b"]`,
		`/HKLM/Software/Version [REG_SZ] = "7.0 \"CE\""`,
	}, "\n")+"\n", out)
}

func TestPrintFlatSubtreeAndDepth(t *testing.T) {
	h := sampleHive(t)
	opts := DefaultOptions()
	opts.Format = FormatFlat
	opts.ShowValueTypes = false
	sw := find(t, h, `HKLM\Software`)

	out := render(t, h, opts, func(p *Printer) error { return p.PrintTree(sw) })
	require.Equal(t, 5, strings.Count(out, "\n"))
	require.NotContains(t, out, "HKCU")

	out = render(t, h, opts, func(p *Printer) error { return p.PrintKey(sw) })
	require.Equal(t, 3, strings.Count(out, "\n"))
	require.Contains(t, out, "/HKLM/Software/Build = 0x00000007 (7)\n")
}

func TestAnnotatesAnomalies(t *testing.T) {
	b := ce7.New()
	missing := uint32(0x7777)
	bad := b.Add(format.EntryValue, ce7.ValuePayload(0, uint16(values.DWord), "Short", []byte{1, 2}))
	key := b.Add(format.EntryKey, ce7.KeyPayload(0, missing, bad, 0, "Broken"))
	var ids [format.RootsSlotCount]uint32
	ids[2] = key
	b.Add(format.EntryRoots, ce7.RootsPayload(ids))

	h, err := hive.Decode(b.Bytes())
	require.NoError(t, err)

	out := render(t, h, DefaultOptions(), func(p *Printer) error {
		return p.PrintTree(h.Tree().Root())
	})
	require.Contains(t, out, `"Short" [REG_DWORD] = 0102 (`)
	require.Contains(t, out, "(unresolved")
	require.Contains(t, out, "<entry 0x7777>")
}
