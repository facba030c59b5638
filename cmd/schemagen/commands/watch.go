package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/schemagen/config"
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/logger"
)

func newWatchCmd(f *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate whenever the config or model changes",
		Long: `Generate once, then regenerate whenever the config file or the model
document changes. A failing run is reported and the previous output is
kept. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, f)
		},
	}
}

// watch blocks until ctx is done
func watch(ctx context.Context, f *runFlags) error {
	log := logger.ComponentLogger("cli.watch")

	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}
	configPath := config.Locate(f.config)

	w, err := config.NewWatcher(configPath, cfg.Model)
	if err != nil {
		return err
	}
	defer w.Stop()
	watched := cfg.Model

	regenerate := func(changed string) error {
		// The config itself may have changed
		cfg, err := f.loadConfig()
		if err != nil {
			return err
		}
		if cfg.Model != watched {
			if err := w.Watch(configPath, cfg.Model); err != nil {
				return err
			}
			log.Infow("model moved",
				logger.FieldModel, cfg.Model,
				logger.FieldPath, watched)
			pterm.Info.Printfln("Now watching %s for changes", cfg.Model)
			watched = cfg.Model
		}

		fs, err := generate(ctx, cfg)
		if err != nil {
			PrintError(err)
			return nil
		}
		if err := fs.Write(ctx, cfg.Output); err != nil {
			return errors.Wrapf(err, "writing %s", cfg.Output)
		}
		pterm.Success.Printfln("Regenerated %d files after %s changed", fs.Len(), changed)
		return nil
	}

	if err := regenerate(cfg.Model); err != nil {
		return err
	}
	w.OnChange(regenerate)
	w.Start()

	log.Infow("watching",
		logger.FieldModel, cfg.Model,
		logger.FieldFile, configPath)
	pterm.Info.Printfln("Watching %s for changes", cfg.Model)

	<-ctx.Done()
	return nil
}
