// Package config handles updater configuration parsing and location resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvConfigPath names the environment variable pointing at a config file.
const EnvConfigPath = "PLUGINUPDATER_CONFIG"

// Defaults applied to unset keys.
const (
	DefaultPackageExt    = ".phar"
	DefaultArchiveScheme = "phar://"
	DefaultSchedule      = "6h"
	DefaultWorkers       = 1
	DefaultHTTPTimeout   = "30s"
	DefaultUserAgent     = "pluginupdater"
	DefaultLogLevel      = "info"
)

// Config is the updater configuration file.
type Config struct {
	MetadataURL   string       `yaml:"metadata_url" toml:"metadata_url" json:"metadata_url"`
	PluginsDir    string       `yaml:"plugins_dir" toml:"plugins_dir" json:"plugins_dir"`
	PackageExt    string       `yaml:"package_ext,omitempty" toml:"package_ext,omitempty" json:"package_ext,omitempty"`
	ArchiveScheme string       `yaml:"archive_scheme,omitempty" toml:"archive_scheme,omitempty" json:"archive_scheme,omitempty"`
	Schedule      string       `yaml:"schedule,omitempty" toml:"schedule,omitempty" json:"schedule,omitempty"`
	Workers       int          `yaml:"workers,omitempty" toml:"workers,omitempty" json:"workers,omitempty"`
	HTTP          HTTPConfig   `yaml:"http" toml:"http" json:"http"`
	Log           LogConfig    `yaml:"log" toml:"log" json:"log"`
	Plugin        PluginConfig `yaml:"plugin" toml:"plugin" json:"plugin"`
}

// HTTPConfig configures the metadata and package fetchers.
type HTTPConfig struct {
	Timeout   string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
	UserAgent string `yaml:"user_agent,omitempty" toml:"user_agent,omitempty" json:"user_agent,omitempty"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level      string `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	File       string `yaml:"file,omitempty" toml:"file,omitempty" json:"file,omitempty"`
	Colors     *bool  `yaml:"colors,omitempty" toml:"colors,omitempty" json:"colors,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" toml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty" toml:"max_backups,omitempty" json:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" toml:"max_age_days,omitempty" json:"max_age_days,omitempty"`
}

// ColorsEnabled reports whether colour markup should be rendered.
// Colours default to on.
func (l LogConfig) ColorsEnabled() bool {
	return l.Colors == nil || *l.Colors
}

// PluginConfig describes the plugin being kept up to date.
type PluginConfig struct {
	Name        string `yaml:"name" toml:"name" json:"name"`
	DisplayName string `yaml:"display_name,omitempty" toml:"display_name,omitempty" json:"display_name,omitempty"`
	Version     string `yaml:"version" toml:"version" json:"version"`
	DataDir     string `yaml:"data_dir" toml:"data_dir" json:"data_dir"`
	File        string `yaml:"file" toml:"file" json:"file"`
	Enabled     *bool  `yaml:"enabled,omitempty" toml:"enabled,omitempty" json:"enabled,omitempty"`
}

// IsEnabled reports whether automatic installs are allowed. Defaults to true.
func (p PluginConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// HTTPTimeout returns the parsed fetch timeout. Validate rejects bad values,
// so a parse failure here falls back to the default.
func (c *Config) HTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultHTTPTimeout)
	}
	return d
}

// ApplyDefaults fills unset keys with their default values.
func (c *Config) ApplyDefaults() {
	if c.PackageExt == "" {
		c.PackageExt = DefaultPackageExt
	}
	if c.ArchiveScheme == "" {
		c.ArchiveScheme = DefaultArchiveScheme
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.HTTP.Timeout == "" {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = DefaultUserAgent
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Plugin.DisplayName == "" {
		c.Plugin.DisplayName = c.Plugin.Name
	}
}

// FindConfig searches for a config file in the standard locations.
// Returns the path to the first file found, or an error if none exists.
func FindConfig(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	searchPaths := []string{"."}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdgConfig = filepath.Join(home, ".config")
		}
	}
	if xdgConfig != "" {
		searchPaths = append(searchPaths, filepath.Join(xdgConfig, "pluginupdater"))
	}

	fileNames := []string{
		"pluginupdater.yaml",
		"pluginupdater.yml",
		"pluginupdater.toml",
		"pluginupdater.json",
		"config.yaml",
		"config.yml",
		"config.toml",
		"config.json",
	}

	for i, dir := range searchPaths {
		for j, name := range fileNames {
			// Generic config.* names only count inside the dedicated directory.
			if i == 0 && j >= 4 {
				break
			}
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("no config file found in standard locations")
}

// Load reads, parses, defaults and validates a config file.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	cfg, err := parse(content, format)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
