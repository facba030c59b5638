package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/teranos/schemagen/errors"
)

// Load reads the configuration from configPath. With an empty path it walks
// up from the working directory looking for schemagen.toml, and falls back
// to defaults when none exists. SCHEMAGEN_* environment variables override
// file values (SCHEMAGEN_OUTPUT, SCHEMAGEN_BACKENDS_PYTHON_PACKAGE, ...).
//
// Relative model and output paths are resolved against the config file's
// directory.
func Load(configPath string) (*Config, error) {
	configPath = Locate(configPath)

	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
		}
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		cfg.resolvePaths(filepath.Dir(configPath))
	}
	return cfg, nil
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// newViper initializes Viper with defaults and environment binding
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SCHEMAGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

func (c *Config) resolvePaths(dir string) {
	if c.Model != "" && !filepath.IsAbs(c.Model) {
		c.Model = filepath.Join(dir, c.Model)
	}
	if c.Output != "" && !filepath.IsAbs(c.Output) {
		c.Output = filepath.Join(dir, c.Output)
	}
}

// Locate returns configPath, or the project config found by walking up from
// the working directory when configPath is empty.
func Locate(configPath string) string {
	if configPath != "" {
		return configPath
	}
	return findProjectConfig()
}

// findProjectConfig searches for schemagen.toml by walking up the directory tree
// Returns the path to the first config file found, or empty string if none found
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, DefaultFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root, stop searching
			return ""
		}
		dir = parent
	}
}
