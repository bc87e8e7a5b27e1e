package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/cehive/hive/printer"
	"github.com/joshuapare/cehive/hive/values"
)

func newGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <hive> <path> <name>",
		Short: "Get a specific registry value",
		Long: `The get command retrieves and displays a specific value from a registry key.
Use "" or "(Default)" for the unnamed value.

Example:
  cehive get system.hv "HKLM\\Ident" Name
  cehive get system.hv "HKLM\\Ident" Name --type`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGet(args)
		},
	}
	cmd.Flags().Bool("type", false, "Show type information")
	a.bind(cmd, "get")
	return cmd
}

func (a *app) runGet(args []string) error {
	keyPath, valueName := args[1], args[2]
	if valueName == printer.DefaultValueName {
		valueName = ""
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
	vid, ok := h.Tree().ValueByName(id, valueName)
	if !ok {
		return fmt.Errorf("value not found: %s\\%s", keyPath, valueName)
	}

	if a.jsonOut() {
		opts := printer.DefaultOptions()
		opts.Format = printer.FormatJSON
		opts.MaxValueBytes = 0
		return printer.New(h.Tree(), a.stdout, opts).PrintValue(vid)
	}

	v := h.Tree().Value(vid)
	text := printer.FormatValue(v, 0)
	if v.Data.Kind == values.KindString && !v.Placeholder {
		text = v.Data.Str
	}
	if a.v.GetBool("get.type") {
		text = fmt.Sprintf("[%s] %s", v.Type, text)
	}
	_, err = fmt.Fprintln(a.stdout, text)
	return err
}
