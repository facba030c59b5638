// Package config loads the generation configuration (schemagen.toml).
package config

// Config represents one generation setup: which model to read, which
// backends to run, and where the output tree goes.
type Config struct {
	Model   string   `mapstructure:"model" toml:"model" json:"model" yaml:"model"`
	Output  string   `mapstructure:"output" toml:"output" json:"output" yaml:"output"`
	Targets []string `mapstructure:"targets" toml:"targets" json:"targets" yaml:"targets"`
	// Flat writes a single target directly under Output instead of Output/<target>.
	Flat    bool `mapstructure:"flat" toml:"flat" json:"flat" yaml:"flat"`
	Workers int  `mapstructure:"workers" toml:"workers" json:"workers" yaml:"workers"`

	// Include and Exclude are globs over "module" or "module.Decl".
	Include []string `mapstructure:"include" toml:"include" json:"include" yaml:"include"`
	Exclude []string `mapstructure:"exclude" toml:"exclude" json:"exclude" yaml:"exclude"`

	Naming   NamingConfig   `mapstructure:"naming" toml:"naming" json:"naming" yaml:"naming"`
	Backends BackendsConfig `mapstructure:"backends" toml:"backends" json:"backends" yaml:"backends"`
}

// NamingConfig tunes the identifiers derived for declarations
type NamingConfig struct {
	TypePrefix string         `mapstructure:"type_prefix" toml:"type_prefix" json:"type_prefix" yaml:"type_prefix"`
	TypeSuffix string         `mapstructure:"type_suffix" toml:"type_suffix" json:"type_suffix" yaml:"type_suffix"`
	Overrides  []NameOverride `mapstructure:"overrides" toml:"overrides" json:"overrides" yaml:"overrides"`
}

// NameOverride pins the identifier of one declaration.
//
//	[[naming.overrides]]
//	decl = "lines.BusLine"
//	name = "Bus"
type NameOverride struct {
	Decl string `mapstructure:"decl" toml:"decl" json:"decl" yaml:"decl"`
	Name string `mapstructure:"name" toml:"name" json:"name" yaml:"name"`
}

// BackendsConfig holds per-backend settings
type BackendsConfig struct {
	Python     PythonConfig     `mapstructure:"python" toml:"python" json:"python" yaml:"python"`
	TypeScript TypeScriptConfig `mapstructure:"typescript" toml:"typescript" json:"typescript" yaml:"typescript"`
	Golang     GolangConfig     `mapstructure:"golang" toml:"golang" json:"golang" yaml:"golang"`
}

// PythonConfig configures the Python backend
type PythonConfig struct {
	// Package is the import root of the generated modules (e.g. "generated").
	Package string `mapstructure:"package" toml:"package" json:"package" yaml:"package"`
	// DecimalType is the Python type used for decimal fields.
	DecimalType     string `mapstructure:"decimal_type" toml:"decimal_type" json:"decimal_type" yaml:"decimal_type"`
	MaxGenericDepth int    `mapstructure:"max_generic_depth" toml:"max_generic_depth" json:"max_generic_depth" yaml:"max_generic_depth"`
}

// TypeScriptConfig configures the TypeScript backend
type TypeScriptConfig struct {
	Readonly        bool `mapstructure:"readonly" toml:"readonly" json:"readonly" yaml:"readonly"`
	MaxGenericDepth int  `mapstructure:"max_generic_depth" toml:"max_generic_depth" json:"max_generic_depth" yaml:"max_generic_depth"`
}

// GolangConfig configures the Go backend
type GolangConfig struct {
	// ModulePath is the import path prefix the generated packages live under.
	ModulePath      string `mapstructure:"module_path" toml:"module_path" json:"module_path" yaml:"module_path"`
	MaxGenericDepth int    `mapstructure:"max_generic_depth" toml:"max_generic_depth" json:"max_generic_depth" yaml:"max_generic_depth"`
}

// OverrideMap returns the name overrides keyed by "module.Decl".
func (n NamingConfig) OverrideMap() map[string]string {
	m := make(map[string]string, len(n.Overrides))
	for _, o := range n.Overrides {
		m[o.Decl] = o.Name
	}
	return m
}
