package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newCheckCmd(f *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that generated sources are up to date",
		Long: `Generate in memory and compare the result with the output directory.
Nothing is written.

Exit codes:
  0 - Generated files are up to date
  1 - Files are missing or differ (a diff per file is shown)
  2 - Error during generation
  3 - Invalid configuration`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig()
			if err != nil {
				return err
			}
			fs, err := generate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := fs.Verify(cmd.Context(), cfg.Output); err != nil {
				return err
			}
			pterm.Success.Printfln("%d generated files are up to date", fs.Len())
			return nil
		},
	}
}
