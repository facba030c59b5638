package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/schemagen/errors"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance, no file or environment
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "schema.yaml", cfg.Model)
	assert.Equal(t, "generated", cfg.Output)
	assert.Equal(t, []string{TargetPython}, cfg.Targets)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "complex", cfg.Backends.Python.DecimalType)
	assert.True(t, cfg.Backends.TypeScript.Readonly)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	content := `
model = "model/transport.yaml"
output = "/tmp/out"
targets = ["python", "typescript"]
workers = 2
exclude = ["internal.*"]

[naming]
type_prefix = "TS"

[[naming.overrides]]
decl = "lines.BusLine"
name = "Bus"

[backends.python]
package = "transport_gen"
decimal_type = "decimal.Decimal"

[backends.typescript]
readonly = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "model/transport.yaml"), cfg.Model)
	assert.Equal(t, "/tmp/out", cfg.Output, "absolute paths are kept")
	assert.Equal(t, []string{"python", "typescript"}, cfg.Targets)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{"internal.*"}, cfg.Exclude)
	assert.Equal(t, "TS", cfg.Naming.TypePrefix)
	assert.Equal(t, map[string]string{"lines.BusLine": "Bus"}, cfg.Naming.OverrideMap())
	assert.Equal(t, "transport_gen", cfg.Backends.Python.Package)
	assert.Equal(t, "decimal.Decimal", cfg.Backends.Python.DecimalType)
	assert.False(t, cfg.Backends.TypeScript.Readonly)
	assert.Equal(t, 4, cfg.Backends.Golang.MaxGenericDepth, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(`output = "from-file"`), 0o644))

	t.Setenv("SCHEMAGEN_OUTPUT", "/env/out")
	t.Setenv("SCHEMAGEN_BACKENDS_PYTHON_PACKAGE", "envpkg")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/out", cfg.Output)
	assert.Equal(t, "envpkg", cfg.Backends.Python.Package)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := LoadWithViper(v)
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "empty output", mutate: func(c *Config) { c.Output = "" }, wantErr: "output cannot be empty"},
		{name: "no targets", mutate: func(c *Config) { c.Targets = nil }, wantErr: "targets cannot be empty"},
		{name: "unknown target", mutate: func(c *Config) { c.Targets = []string{"rust"} }, wantErr: `unknown target "rust"`},
		{name: "duplicate target", mutate: func(c *Config) { c.Targets = []string{"python", "python"} }, wantErr: "listed twice"},
		{name: "flat with two targets", mutate: func(c *Config) {
			c.Flat = true
			c.Targets = []string{"python", "golang"}
		}, wantErr: "flat output requires exactly one target"},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: "workers must be >= 1"},
		{name: "bad glob", mutate: func(c *Config) { c.Include = []string{"[bad"} }, wantErr: "bad include/exclude pattern"},
		{name: "unqualified override", mutate: func(c *Config) {
			c.Naming.Overrides = []NameOverride{{Decl: "BusLine", Name: "Bus"}}
		}, wantErr: "must be module-qualified"},
		{name: "override without name", mutate: func(c *Config) {
			c.Naming.Overrides = []NameOverride{{Decl: "lines.BusLine"}}
		}, wantErr: "has no name"},
		{name: "negative depth", mutate: func(c *Config) { c.Backends.TypeScript.MaxGenericDepth = -1 }, wantErr: "backends.typescript.max_generic_depth must be >= 0"},
		{name: "zero depth means default", mutate: func(c *Config) { c.Backends.Golang.MaxGenericDepth = 0 }},
		{name: "golang without module path", mutate: func(c *Config) {
			c.Targets = []string{"golang"}
			c.Backends.Golang.ModulePath = ""
		}, wantErr: "module_path cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsInvalidConfigError(err))
		})
	}
}
