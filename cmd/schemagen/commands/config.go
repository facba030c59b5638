package commands

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/schemagen/config"
	"github.com/teranos/schemagen/errors"
)

func newConfigCmd(f *runFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the generation configuration",
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after defaults, environment variables and flag
overrides were applied. The TOML output is a valid schemagen.toml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig()
			if err != nil {
				return err
			}
			data, err := marshalConfig(cfg, format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	show.Flags().StringVar(&format, "format", "toml", "Output format: toml, json, yaml")

	where := &cobra.Command{
		Use:   "where",
		Short: "Show which config file is used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Locate(f.config)
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no", config.DefaultFileName, "found, using defaults")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.AddCommand(show, where)
	return cmd
}

func marshalConfig(cfg *config.Config, format string) ([]byte, error) {
	switch format {
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config to TOML")
		}
		return append([]byte("# schemagen configuration\n"), data...), nil
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config to JSON")
		}
		return append(data, '\n'), nil
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config to YAML")
		}
		return append([]byte("# schemagen configuration\n"), data...), nil
	}
	return nil, errors.WithHint(
		errors.NewInvalidConfigError("unsupported format %q", format),
		"supported formats: toml, json, yaml")
}
