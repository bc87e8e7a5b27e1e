package printer

import (
	"fmt"
	"strings"

	"github.com/joshuapare/cehive/hive"
	"github.com/joshuapare/cehive/hive/values"
)

const regHeader = "Windows Registry Editor Version 5.00\n\n"

// escapeRegString escapes a string for .reg format.
func escapeRegString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func formatHexBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ",")
}

// regData renders v the way regedit exports it. Well-formed SZ and DWORD
// values use their literal forms; everything else is a typed hex dump of the
// stored payload.
func regData(v hive.Value) string {
	d := v.Data
	switch {
	case v.Placeholder:
		return "hex(0):"
	case d.Kind == values.KindString && v.Type == values.String:
		return `"` + escapeRegString(d.Str) + `"`
	case d.Kind == values.KindUint32 && v.Type == values.DWord:
		return fmt.Sprintf("dword:%08x", d.Uint)
	case v.Type == values.Binary:
		return "hex:" + formatHexBytes(d.Bytes)
	default:
		return fmt.Sprintf("hex(%x):%s", uint32(v.Type), formatHexBytes(d.Bytes))
	}
}

func regName(v hive.Value) string {
	if v.Name == "" {
		return "@"
	}
	return `"` + escapeRegString(v.Name) + `"`
}

// regPath renders a key path the way regedit does: backslash separated with
// the root names expanded.
func (p *Printer) regPath(id hive.KeyID) string {
	parts := p.tree.PathParts(id)
	if len(parts) > 0 {
		switch strings.ToUpper(parts[0]) {
		case "HKCR":
			parts[0] = "HKEY_CLASSES_ROOT"
		case "HKCU":
			parts[0] = "HKEY_CURRENT_USER"
		case "HKLM":
			parts[0] = "HKEY_LOCAL_MACHINE"
		case "HKU":
			parts[0] = "HKEY_USERS"
		}
	}
	return strings.Join(parts, `\`)
}

func (p *Printer) writeRegKey(id hive.KeyID) error {
	if id == hive.RootKey {
		return nil
	}
	if _, err := fmt.Fprintf(p.writer, "[%s]\n", p.regPath(id)); err != nil {
		return err
	}
	if p.opts.ShowValues {
		for _, vid := range p.tree.Key(id).Values {
			if err := p.printValueReg(vid); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(p.writer)
	return err
}

func (p *Printer) printKeyReg(id hive.KeyID) error {
	if _, err := fmt.Fprint(p.writer, regHeader); err != nil {
		return err
	}
	return p.writeRegKey(id)
}

func (p *Printer) printValueReg(id hive.ValueID) error {
	v := p.tree.Value(id)
	_, err := fmt.Fprintf(p.writer, "%s=%s\n", regName(v), regData(v))
	return err
}

func (p *Printer) printTreeReg(start hive.KeyID) error {
	if _, err := fmt.Fprint(p.writer, regHeader); err != nil {
		return err
	}
	return p.tree.Walk(start, func(id hive.KeyID, depth int) error {
		if p.opts.MaxDepth > 0 && depth >= p.opts.MaxDepth {
			return hive.SkipChildren
		}
		if p.tree.Key(id).Placeholder {
			return nil
		}
		return p.writeRegKey(id)
	})
}
