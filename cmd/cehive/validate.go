package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/cehive/hive/verify"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <hive>",
		Short: "Strictly validate hive structure",
		Long: `The validate command checks the header, declared file size, section
table, entry placement and tree against the CE7 layout. Unlike diagnose it
stops at the first violation and exits non-zero.

Example:
  cehive validate system.hv
  cehive validate system.hv --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(args)
		},
	}
}

func (a *app) runValidate(args []string) error {
	hivePath := args[0]
	data, err := os.ReadFile(hivePath)
	if err != nil {
		return fmt.Errorf("failed to read hive: %w", err)
	}

	verr := verify.AllInvariants(data)

	if a.jsonOut() {
		result := map[string]interface{}{
			"file":  hivePath,
			"valid": verr == nil,
		}
		var ve *verify.ValidationError
		if errors.As(verr, &ve) {
			result["check"] = ve.Type
			result["offset"] = ve.Offset
			result["error"] = ve.Message
			if len(ve.Details) > 0 {
				result["details"] = ve.Details
			}
		}
		if err := a.printJSON(result); err != nil {
			return err
		}
		return verr
	}

	a.printInfo("Validating %s...\n", hivePath)
	if verr != nil {
		a.printInfo("%s %v\n", failMark(), verr)
		return fmt.Errorf("validation failed: %w", verr)
	}
	a.printInfo("%s Hive is valid\n", okMark())
	return nil
}
