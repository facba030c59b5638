package config

import (
	"path"
	"slices"
	"strings"

	"github.com/teranos/schemagen/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Model == "" {
		return errors.NewInvalidConfigError("model cannot be empty")
	}
	if c.Output == "" {
		return errors.NewInvalidConfigError("output cannot be empty")
	}

	if len(c.Targets) == 0 {
		return errors.WithHint(
			errors.NewInvalidConfigError("targets cannot be empty"),
			"set targets = [\"python\"] or pass --backend")
	}
	seen := make(map[string]bool, len(c.Targets))
	for _, t := range c.Targets {
		if !slices.Contains(KnownTargets, t) {
			return errors.WithHintf(
				errors.NewInvalidConfigError("unknown target %q", t),
				"known targets: %s", strings.Join(KnownTargets, ", "))
		}
		if seen[t] {
			return errors.NewInvalidConfigError("target %q listed twice", t)
		}
		seen[t] = true
	}
	if c.Flat && len(c.Targets) != 1 {
		return errors.NewInvalidConfigError("flat output requires exactly one target, got %d", len(c.Targets))
	}

	// Workers: 0 would deadlock the printer pool, negative is invalid
	if c.Workers < 1 {
		return errors.NewInvalidConfigError("workers must be >= 1, got %d", c.Workers)
	}

	for _, pattern := range append(slices.Clone(c.Include), c.Exclude...) {
		if _, err := path.Match(pattern, ""); err != nil {
			return errors.NewInvalidConfigError("bad include/exclude pattern %q", pattern)
		}
	}

	seenDecl := make(map[string]bool, len(c.Naming.Overrides))
	for _, o := range c.Naming.Overrides {
		if !strings.Contains(o.Decl, ".") {
			return errors.WithHint(
				errors.NewInvalidConfigError("naming override %q must be module-qualified", o.Decl),
				"write the declaration as \"module.Decl\"")
		}
		if o.Name == "" {
			return errors.NewInvalidConfigError("naming override for %s has no name", o.Decl)
		}
		if seenDecl[o.Decl] {
			return errors.NewInvalidConfigError("naming override for %s given twice", o.Decl)
		}
		seenDecl[o.Decl] = true
	}

	// Generic depth: 0 = backend default, negative = invalid
	for _, d := range []struct {
		key   string
		depth int
	}{
		{"backends.python.max_generic_depth", c.Backends.Python.MaxGenericDepth},
		{"backends.typescript.max_generic_depth", c.Backends.TypeScript.MaxGenericDepth},
		{"backends.golang.max_generic_depth", c.Backends.Golang.MaxGenericDepth},
	} {
		if d.depth < 0 {
			return errors.NewInvalidConfigError("%s must be >= 0, got %d", d.key, d.depth)
		}
	}

	if slices.Contains(c.Targets, TargetGolang) && c.Backends.Golang.ModulePath == "" {
		return errors.NewInvalidConfigError("backends.golang.module_path cannot be empty when golang is a target")
	}
	if slices.Contains(c.Targets, TargetPython) && c.Backends.Python.DecimalType == "" {
		return errors.NewInvalidConfigError("backends.python.decimal_type cannot be empty")
	}

	return nil
}
