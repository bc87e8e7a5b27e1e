package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joshuapare/cehive/hive"
)

// envPrefix is prepended to every configuration key read from the
// environment, e.g. CEHIVE_NO_COLOR or CEHIVE_TREE_DEPTH.
const envPrefix = "CEHIVE"

const version = "0.1.0"

// app carries the per-invocation configuration and output streams.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "cehive",
		Short: "Inspect Windows CE 7 registry hive files",
		Long: `cehive decodes Windows CE 7 registry hives (system.hv, user.hv) without
a host registry. It prints keys and typed values, reports structural
anomalies and compares two hives.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if a.v.GetBool("no-color") {
				color.NoColor = true
			}
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable debug logging on stderr")
	flags.BoolP("quiet", "q", false, "Suppress all output except results and errors")
	flags.Bool("json", false, "Output in JSON format")
	flags.Bool("no-color", false, "Disable colored output")
	flags.Int("max-depth", hive.DefaultMaxDepth, "Maximum key nesting to decode")
	flags.VisitAll(func(f *pflag.Flag) {
		_ = a.v.BindPFlag(f.Name, f)
	})

	cmd.AddCommand(
		newTreeCmd(a),
		newDumpCmd(a),
		newGetCmd(a),
		newInfoCmd(a),
		newDiagnoseCmd(a),
		newValidateCmd(a),
		newDiffCmd(a),
	)
	return cmd
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// bind registers every local flag of cmd under "<prefix>.<flag>" so it can
// also be set from the environment.
func (a *app) bind(cmd *cobra.Command, prefix string) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = a.v.BindPFlag(prefix+"."+f.Name, f)
	})
}

func (a *app) jsonOut() bool { return a.v.GetBool("json") }

// logger returns the slog logger handed to the decoder.
func (a *app) logger() *slog.Logger {
	level := slog.LevelWarn
	switch {
	case a.v.GetBool("verbose"):
		level = slog.LevelDebug
	case a.v.GetBool("quiet"):
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

// open decodes the hive at path with the configured options.
func (a *app) open(path string) (*hive.Hive, error) {
	opts := []hive.Option{hive.WithLogger(a.logger())}
	if d := a.v.GetInt("max-depth"); d > 0 {
		opts = append(opts, hive.WithMaxDepth(d))
	}
	h, err := hive.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open hive: %w", err)
	}
	return h, nil
}

// lookup resolves a key path; the empty path is the tree root.
func lookup(h *hive.Hive, path string) (hive.KeyID, error) {
	id, ok := h.Find(path)
	if !ok {
		return hive.NoKey, fmt.Errorf("key not found: %s", path)
	}
	return id, nil
}

// printInfo prints an informational message unless in quiet mode.
func (a *app) printInfo(format string, args ...interface{}) {
	if !a.v.GetBool("quiet") {
		fmt.Fprintf(a.stdout, format, args...)
	}
}

// printJSON outputs data as indented JSON.
func (a *app) printJSON(v interface{}) error {
	return writeJSON(a.stdout, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
