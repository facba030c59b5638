package config

import (
	"github.com/spf13/viper"
)

// File name searched for when no config path is given
const DefaultFileName = "schemagen.toml"

// Known generation targets
const (
	TargetPython     = "python"
	TargetTypeScript = "typescript"
	TargetGolang     = "golang"
)

// KnownTargets lists every backend name accepted in targets
var KnownTargets = []string{TargetPython, TargetTypeScript, TargetGolang}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("model", "schema.yaml")
	v.SetDefault("output", "generated")
	v.SetDefault("targets", []string{TargetPython})
	v.SetDefault("flat", false)
	v.SetDefault("workers", 4)
	v.SetDefault("include", []string{})
	v.SetDefault("exclude", []string{})

	v.SetDefault("naming.type_prefix", "")
	v.SetDefault("naming.type_suffix", "")

	v.SetDefault("backends.python.package", "generated")
	v.SetDefault("backends.python.decimal_type", "complex") // mirrors the historical mapping
	v.SetDefault("backends.python.max_generic_depth", 4)

	v.SetDefault("backends.typescript.readonly", true)
	v.SetDefault("backends.typescript.max_generic_depth", 4)

	v.SetDefault("backends.golang.module_path", "example.com/generated")
	v.SetDefault("backends.golang.max_generic_depth", 4)
}
