// Package diff compares two decoded hives by their flat value listings.
package diff

import (
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/joshuapare/cehive/hive"
	"github.com/joshuapare/cehive/hive/printer"
)

// Result is the line-oriented difference between two listings.
type Result struct {
	// Unified is the structured unified diff. It has no hunks when the
	// listings are equal.
	Unified gotextdiff.Unified

	// Removed and Added hold the listing lines present only in the first
	// or only in the second hive, in diff order.
	Removed []string
	Added   []string
}

// Empty reports whether the listings were identical.
func (r Result) Empty() bool { return len(r.Unified.Hunks) == 0 }

// String renders the unified diff text, or "" when Empty.
func (r Result) String() string {
	if r.Empty() {
		return ""
	}
	return fmt.Sprint(r.Unified)
}

// Listing renders t as sorted "path [TYPE] = data" lines with untruncated
// payloads.
func Listing(t *hive.Tree) (string, error) {
	var sb strings.Builder
	opts := printer.DefaultOptions()
	opts.Format = printer.FormatFlat
	opts.MaxValueBytes = 0
	if err := printer.New(t, &sb, opts).PrintTree(t.Root()); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Hives diffs the listings of a and b. fromName and toName label the
// unified output.
func Hives(a, b *hive.Hive, fromName, toName string) (Result, error) {
	la, err := Listing(a.Tree())
	if err != nil {
		return Result{}, fmt.Errorf("diff: listing %s: %w", fromName, err)
	}
	lb, err := Listing(b.Tree())
	if err != nil {
		return Result{}, fmt.Errorf("diff: listing %s: %w", toName, err)
	}
	return Text(la, lb, fromName, toName), nil
}

// Text diffs two listings already rendered.
func Text(a, b, fromName, toName string) Result {
	var r Result
	if a == b {
		r.Unified = gotextdiff.Unified{From: fromName, To: toName}
		return r
	}

	edits := myers.ComputeEdits(span.URIFromPath(fromName), a, b)
	r.Unified = gotextdiff.ToUnified(fromName, toName, a, edits)
	for _, h := range r.Unified.Hunks {
		for _, ln := range h.Lines {
			text := strings.TrimSuffix(ln.Content, "\n")
			switch ln.Kind {
			case gotextdiff.Delete:
				r.Removed = append(r.Removed, text)
			case gotextdiff.Insert:
				r.Added = append(r.Added, text)
			}
		}
	}
	return r
}
