package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/cehive/hive/printer"
)

func newTreeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <hive> [path]",
		Short: "Display the key hierarchy",
		Long: `The tree command displays a hierarchical view of registry keys.

Example:
  cehive tree system.hv
  cehive tree system.hv "HKLM\\Drivers" --depth 2
  cehive tree system.hv --values --depth 1`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTree(args)
		},
	}
	cmd.Flags().Int("depth", 0, "Maximum depth (0 = unlimited)")
	cmd.Flags().Bool("values", false, "Show values too")
	cmd.Flags().Bool("compact", false, "Compact output")
	cmd.Flags().Bool("metadata", false, "Show entry ids, offsets and counts")
	a.bind(cmd, "tree")
	return cmd
}

func (a *app) runTree(args []string) error {
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
	opts.ShowValues = a.v.GetBool("tree.values")
	opts.MaxDepth = a.v.GetInt("tree.depth")
	opts.PrintMetadata = a.v.GetBool("tree.metadata")
	if a.v.GetBool("tree.compact") {
		opts.IndentSize = 1
	}
	if a.jsonOut() {
		opts.Format = printer.FormatJSON
	}

	if err := printer.New(h.Tree(), a.stdout, opts).PrintTree(id); err != nil {
		return fmt.Errorf("failed to display tree: %w", err)
	}
	return nil
}
