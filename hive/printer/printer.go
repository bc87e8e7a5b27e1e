// Package printer renders a decoded hive tree as text, JSON, .reg or a flat
// path listing.
package printer

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshuapare/cehive/hive"
	"github.com/joshuapare/cehive/hive/values"
)

const (
	DefaultIndentSize    = 2
	DefaultMaxDepth      = 0
	DefaultMaxValueBytes = 32

	// DefaultValueName is shown for the unnamed default value.
	DefaultValueName = "(Default)"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs an indented human-readable tree.
	FormatText Format = "text"

	// FormatJSON outputs a nested JSON document.
	FormatJSON Format = "json"

	// FormatReg outputs Windows .reg file format.
	FormatReg Format = "reg"

	// FormatFlat outputs one line per value, addressed by full path and
	// sorted by path.
	FormatFlat Format = "flat"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatReg, FormatFlat:
		return f, nil
	default:
		return "", fmt.Errorf("printer: unknown format %q (want text, json, reg or flat)", s)
	}
}

// Options controls printing behavior.
type Options struct {
	// Format specifies the output format.
	// Default: FormatText
	Format Format

	// IndentSize is the number of spaces per indent level (text format only).
	// Default: 2
	IndentSize int

	// MaxDepth limits recursion depth (0 = unlimited).
	// Default: 0 (unlimited)
	MaxDepth int

	// ShowValues includes values in output.
	// Default: true
	ShowValues bool

	// ShowValueTypes includes REG_* type names.
	// Default: true
	ShowValueTypes bool

	// MaxValueBytes limits how many bytes of binary values to display.
	// Longer values are truncated. Set to 0 for no limit.
	// Default: 32
	MaxValueBytes int

	// PrintMetadata includes entry ids, offsets, flags and counts.
	// Default: false
	PrintMetadata bool
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:         FormatText,
		IndentSize:     DefaultIndentSize,
		MaxDepth:       DefaultMaxDepth,
		ShowValues:     true,
		ShowValueTypes: true,
		MaxValueBytes:  DefaultMaxValueBytes,
	}
}

// Printer handles formatted output of a decoded tree.
type Printer struct {
	opts   Options
	writer io.Writer
	tree   *hive.Tree
}

// New creates a Printer writing to w.
//
// Example:
//
//	h, _ := hive.Open("system.hv")
//	p := printer.New(h.Tree(), os.Stdout, printer.DefaultOptions())
//	p.PrintTree(h.Tree().Root())
func New(t *hive.Tree, w io.Writer, opts Options) *Printer {
	return &Printer{tree: t, writer: w, opts: opts}
}

// PrintKey prints a key and its values without descending.
func (p *Printer) PrintKey(id hive.KeyID) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printKeyJSON(id)
	case FormatReg:
		return p.printKeyReg(id)
	case FormatFlat:
		return p.printFlat(id, 1)
	default:
		return p.printKeyText(id, 0)
	}
}

// PrintValue prints a single value.
func (p *Printer) PrintValue(id hive.ValueID) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printValueJSON(id)
	case FormatReg:
		return p.printValueReg(id)
	case FormatFlat:
		return p.printFlatValue(id)
	default:
		return p.printValueText(id, 0)
	}
}

// PrintTree prints the subtree rooted at id, honouring MaxDepth.
func (p *Printer) PrintTree(id hive.KeyID) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printTreeJSON(id)
	case FormatReg:
		return p.printTreeReg(id)
	case FormatFlat:
		return p.printFlat(id, p.opts.MaxDepth)
	default:
		return p.printTreeText(id)
	}
}

func valueName(v hive.Value) string {
	if v.Name == "" {
		return DefaultValueName
	}
	return v.Name
}

func keyName(k hive.Key) string {
	switch {
	case k.Parent == hive.NoKey:
		return `\`
	case k.Placeholder:
		return fmt.Sprintf("<entry 0x%X>", k.EntryID)
	default:
		return k.Name
	}
}

// FormatValue renders the decoded data of v on one line.
func FormatValue(v hive.Value, maxBytes int) string {
	if v.Placeholder {
		return fmt.Sprintf("<unresolved: %v>", v.Err)
	}
	d := v.Data
	switch d.Kind {
	case values.KindString:
		return strconv.Quote(d.Str)
	case values.KindStrings:
		quoted := make([]string, len(d.Strs))
		for i, s := range d.Strs {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case values.KindUint32:
		return fmt.Sprintf("0x%08X (%d)", d.Uint, d.Uint)
	case values.KindUint64:
		return fmt.Sprintf("0x%016X (%d)", d.Uint, d.Uint)
	default:
		return formatBytes(d.Bytes, maxBytes)
	}
}

func formatBytes(data []byte, maxBytes int) string {
	if len(data) == 0 {
		return "<empty>"
	}
	if maxBytes <= 0 || maxBytes > len(data) {
		maxBytes = len(data)
	}
	s := strings.ToUpper(hex.EncodeToString(data[:maxBytes]))
	if maxBytes < len(data) {
		s += fmt.Sprintf(" (truncated, %d total bytes)", len(data))
	}
	return s
}

// annotations lists the decoder flags worth surfacing next to a name.
func annotations(placeholder, suspect bool, err error) string {
	var notes []string
	if placeholder {
		notes = append(notes, "unresolved")
	}
	if suspect {
		notes = append(notes, "suspect")
	}
	if err != nil && !placeholder {
		notes = append(notes, err.Error())
	}
	if len(notes) == 0 {
		return ""
	}
	return " (" + strings.Join(notes, ", ") + ")"
}
