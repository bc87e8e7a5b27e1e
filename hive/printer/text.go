package printer

import (
	"fmt"
	"strings"

	"github.com/joshuapare/cehive/hive"
)

// printKeyText prints a key in human-readable text format.
func (p *Printer) printKeyText(id hive.KeyID, depth int) error {
	k := p.tree.Key(id)
	indent := strings.Repeat(" ", depth*p.opts.IndentSize)

	if _, err := fmt.Fprintf(p.writer, "%s[%s]%s\n", indent, keyName(k),
		annotations(k.Placeholder, k.Suspect, k.Err)); err != nil {
		return err
	}
	if p.opts.PrintMetadata {
		if k.Synthetic {
			fmt.Fprintf(p.writer, "%s  Synthetic\n", indent)
		} else {
			fmt.Fprintf(p.writer, "%s  Entry: 0x%X, Offset: 0x%X, Flags: 0x%04X\n", indent, k.EntryID, k.Offset, k.Flags)
		}
		fmt.Fprintf(p.writer, "%s  Subkeys: %d, Values: %d\n", indent, len(k.Children), len(k.Values))
	}

	if p.opts.ShowValues {
		for _, vid := range k.Values {
			if err := p.printValueText(vid, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// printValueText prints a value in human-readable text format.
func (p *Printer) printValueText(id hive.ValueID, depth int) error {
	v := p.tree.Value(id)
	indent := strings.Repeat(" ", depth*p.opts.IndentSize)

	var b strings.Builder
	fmt.Fprintf(&b, "%s%q", indent, valueName(v))
	if p.opts.ShowValueTypes {
		fmt.Fprintf(&b, " [%s]", v.Type)
	}
	fmt.Fprintf(&b, " = %s%s\n", FormatValue(v, p.opts.MaxValueBytes), annotations(false, v.Suspect, v.Data.Err))
	_, err := fmt.Fprint(p.writer, b.String())
	return err
}

// printTreeText prints a subtree in text format, one key per block.
func (p *Printer) printTreeText(start hive.KeyID) error {
	first := true
	return p.tree.Walk(start, func(id hive.KeyID, depth int) error {
		if p.opts.MaxDepth > 0 && depth >= p.opts.MaxDepth {
			return hive.SkipChildren
		}
		if !first {
			fmt.Fprintln(p.writer)
		}
		first = false
		return p.printKeyText(id, depth)
	})
}
