// Package plugin provides the host-side description of the plugin being
// updated.
package plugin

import (
	"github.com/adamancini/pluginupdater/internal/config"
	"github.com/adamancini/pluginupdater/internal/update"
)

// Descriptor is an immutable update.Plugin.
type Descriptor struct {
	name        string
	displayName string
	version     string
	dataDir     string
	file        string
	enabled     bool
}

var _ update.Plugin = Descriptor{}

// New creates a descriptor. An empty displayName falls back to name.
func New(name, displayName, version, dataDir, file string, enabled bool) Descriptor {
	if displayName == "" {
		displayName = name
	}
	return Descriptor{
		name:        name,
		displayName: displayName,
		version:     version,
		dataDir:     dataDir,
		file:        file,
		enabled:     enabled,
	}
}

// FromConfig builds a descriptor from the plugin section of a config.
func FromConfig(c config.PluginConfig) Descriptor {
	return New(c.Name, c.DisplayName, c.Version, c.DataDir, c.File, c.IsEnabled())
}

// WithVersion returns a copy reporting version as the running version.
func (d Descriptor) WithVersion(version string) Descriptor {
	d.version = version
	return d
}

func (d Descriptor) Name() string        { return d.name }
func (d Descriptor) DisplayName() string { return d.displayName }
func (d Descriptor) Version() string     { return d.version }
func (d Descriptor) DataDir() string     { return d.dataDir }
func (d Descriptor) File() string        { return d.file }
func (d Descriptor) Enabled() bool       { return d.enabled }
