// Package commands implements the schemagen command line.
package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/logger"
)

// Exit codes
const (
	ExitOK         = 0
	ExitOutOfDate  = 1
	ExitFailure    = 2
	ExitBadRequest = 3
)

// flags shared by every command that runs a generation
type runFlags struct {
	config     string
	model      string
	output     string
	targets    []string
	verbosity  int
	jsonOutput bool
}

// NewRootCmd builds the schemagen command tree
func NewRootCmd() *cobra.Command {
	f := &runFlags{}

	root := &cobra.Command{
		Use:   "schemagen",
		Short: "Generate Python, TypeScript and Go sources from a schema model",
		Long: `schemagen reads a schema model (YAML, JSON, TOML or CUE) and generates
type definitions, constants and singletons for every configured target.

Configuration is read from schemagen.toml, searched upwards from the
working directory unless --config is given. Flags override file values.

Examples:
  schemagen generate                     # Generate every configured target
  schemagen generate -b typescript       # One target only
  schemagen check                        # Fail when generated files are stale
  schemagen watch                        # Regenerate on every model change`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Initialize(f.jsonOutput, f.verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.CountVarP(&f.verbosity, "verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	pf.BoolVar(&f.jsonOutput, "json-log", false, "Write logs as JSON")
	pf.StringVarP(&f.config, "config", "c", "", "Config file (default: schemagen.toml searched upwards)")
	pf.StringVarP(&f.model, "model", "m", "", "Model document, overrides the config")
	pf.StringVarP(&f.output, "output", "o", "", "Output directory, overrides the config")
	pf.StringSliceVarP(&f.targets, "backend", "b", nil, "Targets to generate, overrides the config (python, typescript, golang)")

	root.AddCommand(
		newGenerateCmd(f),
		newCheckCmd(f),
		newWatchCmd(f),
		newConfigCmd(f),
		newVersionCmd(),
	)
	return root
}

// ExitCode maps a command error onto the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.IsOutOfDateError(err):
		return ExitOutOfDate
	case errors.IsInvalidConfigError(err):
		return ExitBadRequest
	default:
		return ExitFailure
	}
}

// PrintError reports every collected problem with its hints
func PrintError(err error) {
	if errors.IsOutOfDateError(err) {
		pterm.Error.Println("Generated files are out of date")
	}
	for _, e := range errors.Flatten(err) {
		pterm.Error.Println(e.Error())
		if hint := errors.FlattenHints(e); hint != "" {
			pterm.Info.Println(hint)
		}
	}
}
