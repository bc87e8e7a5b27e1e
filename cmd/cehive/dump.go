package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/cehive/hive/printer"
)

func newDumpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <hive> [path]",
		Short: "Dump keys and values",
		Long: `The dump command prints every value below a key.

Formats:
  flat - one "path [TYPE] = data" line per value, sorted by path
  text - indented key tree with values
  json - nested JSON document
  reg  - Windows .reg export

Example:
  cehive dump system.hv
  cehive dump system.hv HKLM --format reg > hklm.reg
  cehive dump user.hv --format json --max-bytes 0`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDump(args)
		},
	}
	cmd.Flags().StringP("format", "f", string(printer.FormatFlat), "Output format: flat, text, json, reg")
	cmd.Flags().Int("max-bytes", 0, "Truncate binary data after this many bytes (0 = no limit)")
	a.bind(cmd, "dump")
	return cmd
}

func (a *app) runDump(args []string) error {
	format, err := printer.ParseFormat(a.v.GetString("dump.format"))
	if err != nil {
		return err
	}
	if a.jsonOut() {
		format = printer.FormatJSON
	}

	var keyPath string
	if len(args) > 1 {
		keyPath = args[1]
	}

	h, err := a.open(args[0])
	if err != nil {
		return err
	}
	defer h.Close()

	id, err := lookup(h, keyPath)
	if err != nil {
		return err
	}

	opts := printer.DefaultOptions()
	opts.Format = format
	opts.MaxValueBytes = a.v.GetInt("dump.max-bytes")

	if err := printer.New(h.Tree(), a.stdout, opts).PrintTree(id); err != nil {
		return fmt.Errorf("failed to dump: %w", err)
	}
	return nil
}
