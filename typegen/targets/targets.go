// Package targets turns a loaded configuration into the backends and run
// options of a generation.
package targets

import (
	"github.com/teranos/schemagen/config"
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/typegen"
	"github.com/teranos/schemagen/typegen/golang"
	"github.com/teranos/schemagen/typegen/python"
	"github.com/teranos/schemagen/typegen/typescript"
)

// Backend creates the backend registered under name
func Backend(name string, cfg config.BackendsConfig) (typegen.Backend, error) {
	switch name {
	case config.TargetPython:
		return python.New(python.Options{
			Package:         cfg.Python.Package,
			DecimalType:     cfg.Python.DecimalType,
			MaxGenericDepth: cfg.Python.MaxGenericDepth,
		}), nil
	case config.TargetTypeScript:
		return typescript.New(typescript.Options{
			Readonly:        cfg.TypeScript.Readonly,
			MaxGenericDepth: cfg.TypeScript.MaxGenericDepth,
		}), nil
	case config.TargetGolang:
		return golang.New(golang.Options{
			ModulePath:      cfg.Golang.ModulePath,
			MaxGenericDepth: cfg.Golang.MaxGenericDepth,
		}), nil
	}
	return nil, errors.NewInvalidConfigError("unknown target %q", name)
}

// Backends creates one backend per configured target, in target order
func Backends(cfg *config.Config) ([]typegen.Backend, error) {
	backends := make([]typegen.Backend, 0, len(cfg.Targets))
	for _, name := range cfg.Targets {
		b, err := Backend(name, cfg.Backends)
		if err != nil {
			return nil, err
		}
		backends = append(backends, b)
	}
	return backends, nil
}

// Options maps the run settings of cfg onto generation options
func Options(cfg *config.Config) typegen.Options {
	return typegen.Options{
		Include: cfg.Include,
		Exclude: cfg.Exclude,
		Workers: cfg.Workers,
		Flat:    cfg.Flat,
		Naming: typegen.NamingOptions{
			Prefix:    cfg.Naming.TypePrefix,
			Suffix:    cfg.Naming.TypeSuffix,
			Overrides: cfg.Naming.OverrideMap(),
		},
	}
}
