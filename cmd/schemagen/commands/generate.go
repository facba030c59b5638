package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/schemagen/logger"
)

func newGenerateCmd(f *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate sources for every configured target",
		Long: `Generate sources for every configured target.

Files are staged next to the output directory and moved into place only
when every backend succeeded, so a failed run leaves the tree untouched.`,
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
			if err := fs.Write(cmd.Context(), cfg.Output); err != nil {
				return err
			}

			logger.ComponentLogger("cli").Infow("wrote output",
				logger.FieldOutput, cfg.Output,
				logger.FieldCount, fs.Len())
			pterm.Success.Printfln("Generated %d files in %s", fs.Len(), cfg.Output)
			return nil
		},
	}
}
