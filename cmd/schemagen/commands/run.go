package commands

import (
	"context"
	"time"

	"github.com/teranos/schemagen/config"
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/logger"
	"github.com/teranos/schemagen/schema"
	"github.com/teranos/schemagen/typegen"
	"github.com/teranos/schemagen/typegen/targets"
)

// loadConfig reads the configuration and applies flag overrides
func (f *runFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrInvalidConfig)
	}
	if f.model != "" {
		cfg.Model = f.model
	}
	if f.output != "" {
		cfg.Output = f.output
	}
	if len(f.targets) > 0 {
		cfg.Targets = f.targets
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// generate runs every configured backend over the model
func generate(ctx context.Context, cfg *config.Config) (*typegen.FS, error) {
	log := logger.ComponentLogger("cli")
	start := time.Now()

	s, err := schema.Load(cfg.Model)
	if err != nil {
		return nil, err
	}
	backends, err := targets.Backends(cfg)
	if err != nil {
		return nil, err
	}
	fs, err := typegen.Generate(ctx, s, backends, targets.Options(cfg))
	if err != nil {
		return nil, err
	}

	log.Infow("generated",
		logger.FieldModel, cfg.Model,
		logger.FieldCount, fs.Len(),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return fs, nil
}
