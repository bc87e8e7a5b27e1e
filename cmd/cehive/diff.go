package main

import (
	"fmt"

	"github.com/spf13/cobra"

	hivediff "github.com/joshuapare/cehive/hive/diff"
)

func newDiffCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <hive1> <hive2>",
		Short: "Compare the values of two hives",
		Long: `The diff command prints a unified diff of the flat value listings of two
hives. Each line names a value by its full path, type and data.

Example:
  cehive diff system.hv system.hv.bak
  cehive diff old.hv new.hv --stat`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDiff(args)
		},
	}
	cmd.Flags().Bool("stat", false, "Only print the number of added and removed lines")
	a.bind(cmd, "diff")
	return cmd
}

func (a *app) runDiff(args []string) error {
	h1, err := a.open(args[0])
	if err != nil {
		return err
	}
	defer h1.Close()

	h2, err := a.open(args[1])
	if err != nil {
		return err
	}
	defer h2.Close()

	res, err := hivediff.Hives(h1, h2, args[0], args[1])
	if err != nil {
		return err
	}

	if a.jsonOut() {
		return a.printJSON(map[string]interface{}{
			"identical": res.Empty(),
			"added":     res.Added,
			"removed":   res.Removed,
		})
	}

	if res.Empty() {
		a.printInfo("No differences\n")
		return nil
	}
	if a.v.GetBool("diff.stat") {
		_, err = fmt.Fprintf(a.stdout, "%d added, %d removed\n", len(res.Added), len(res.Removed))
		return err
	}
	_, err = fmt.Fprint(a.stdout, res.String())
	return err
}
