package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joshuapare/cehive/hive"
)

type anomalyReport struct {
	Kind    string `json:"kind"`
	Offset  int    `json:"offset"`
	EntryID uint32 `json:"entry_id,omitempty"`
	Key     string `json:"key,omitempty"`
	Error   string `json:"error,omitempty"`
}

type diagnosis struct {
	File      string          `json:"file"`
	Summary   map[string]int  `json:"summary"`
	Anomalies []anomalyReport `json:"anomalies"`
}

func newDiagnoseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose <hive>",
		Short: "Report every anomaly found while decoding",
		Long: `Decodes a hive and lists every recoverable inconsistency:
  - sections outside the file, with bad magic, or overlapping
  - entries that do not fit their section or fail to decode
  - dangling references, reference cycles, shared children
  - references into freed space`,
		Example: `  # Human-readable report
  cehive diagnose system.hv

  # One line per anomaly
  cehive diagnose --format compact system.hv

  # Fail when anything is found
  cehive diagnose --fail system.hv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDiagnose(args)
		},
	}
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json, compact")
	cmd.Flags().BoolP("summary", "s", false, "Show only per-kind counts")
	cmd.Flags().StringP("output", "o", "", "Write report to file instead of stdout")
	cmd.Flags().Bool("fail", false, "Exit non-zero when anomalies are found")
	a.bind(cmd, "diagnose")
	return cmd
}

func diagnose(path string, h *hive.Hive) diagnosis {
	d := diagnosis{File: path, Summary: map[string]int{}, Anomalies: []anomalyReport{}}
	for _, an := range h.Anomalies() {
		r := anomalyReport{Kind: an.Kind.String(), Offset: an.Offset, EntryID: an.ID}
		if an.Key != hive.NoKey {
			r.Key = h.Tree().Path(an.Key)
		}
		if an.Err != nil {
			r.Error = an.Err.Error()
		}
		d.Summary[r.Kind]++
		d.Anomalies = append(d.Anomalies, r)
	}
	return d
}

// severe reports kinds that lose data, as opposed to ones the tree
// tolerates intact.
func severe(k hive.AnomalyKind) bool {
	switch k {
	case hive.OutOfBounds, hive.CorruptBlockTable, hive.MalformedCell,
		hive.DanglingReference, hive.MissingRoots:
		return true
	default:
		return false
	}
}

func (a *app) runDiagnose(args []string) error {
	format := a.v.GetString("diagnose.format")
	if a.jsonOut() {
		format = "json"
	}
	switch format {
	case "text", "json", "compact":
	default:
		return fmt.Errorf("unknown format: %s (use: text, json, compact)", format)
	}

	h, err := a.open(args[0])
	if err != nil {
		return err
	}
	defer h.Close()

	var sb strings.Builder
	var w io.Writer = a.stdout
	outFile := a.v.GetString("diagnose.output")
	if outFile != "" {
		w = &sb
	}

	report := diagnose(args[0], h)
	switch format {
	case "json":
		if err := writeJSON(w, report); err != nil {
			return err
		}
	case "compact":
		for _, an := range h.Anomalies() {
			fmt.Fprintln(w, an.String())
		}
	default:
		writeDiagnosis(w, h, report, a.v.GetBool("diagnose.summary"))
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, []byte(sb.String()), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		a.printInfo("Report written to: %s\n", outFile)
	}

	if n := len(report.Anomalies); n > 0 && a.v.GetBool("diagnose.fail") {
		return fmt.Errorf("%d anomalies found", n)
	}
	return nil
}

func writeDiagnosis(w io.Writer, h *hive.Hive, report diagnosis, summaryOnly bool) {
	fmt.Fprintf(w, "Diagnostic report for %s\n", report.File)
	fmt.Fprintf(w, "Entries: %d, keys: %d, values: %d\n\n", h.NumCells(), h.Tree().NumKeys(), h.Tree().NumValues())

	if !summaryOnly {
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		for i, an := range h.Anomalies() {
			c := yellow
			if severe(an.Kind) {
				c = red
			}
			c.Fprintf(w, "%s %s", errorSymbol, an.String())
			if key := report.Anomalies[i].Key; key != "" {
				fmt.Fprintf(w, " [key %s]", key)
			}
			fmt.Fprintln(w)
		}
		if len(report.Anomalies) > 0 {
			fmt.Fprintln(w)
		}
	}

	if len(report.Anomalies) == 0 {
		fmt.Fprintf(w, "%s No anomalies found\n", okMark())
		return
	}
	for k := hive.OutOfBounds; k <= hive.MissingRoots; k++ {
		if n := report.Summary[k.String()]; n > 0 {
			fmt.Fprintf(w, "%-18s %d\n", k.String()+":", n)
		}
	}
}
