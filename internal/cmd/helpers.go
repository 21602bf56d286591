package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/adamancini/pluginupdater/internal/config"
	"github.com/adamancini/pluginupdater/internal/logging"
	"github.com/adamancini/pluginupdater/internal/output"
	"github.com/adamancini/pluginupdater/internal/plugin"
	"github.com/adamancini/pluginupdater/internal/update"
)

// loadConfig finds and loads the config file selected by the global flags.
func loadConfig() (*config.Config, error) {
	path, err := config.FindConfig(configPath)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// newLogger builds the logger for cfg, honouring --verbose and --quiet.
func newLogger(cfg *config.Config, console io.Writer) (*logrus.Logger, error) {
	level := cfg.Log.Level
	switch {
	case quiet:
		level = "error"
	case verbose:
		level = "debug"
	}

	return logging.New(logging.Options{
		Level:      level,
		File:       cfg.Log.File,
		Colors:     cfg.Log.ColorsEnabled(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Output:     console,
	})
}

// newUpdater wires an Updater for cfg on the real filesystem.
func newUpdater(cfg *config.Config, p update.Plugin, logger logrus.FieldLogger, runner update.TaskRunner) *update.Updater {
	fs := afero.NewOsFs()
	fetcher := update.NewHTTPFetcher(fs,
		update.WithTimeout(cfg.HTTPTimeout()),
		update.WithUserAgent(cfg.HTTP.UserAgent),
	)

	return update.NewUpdater(
		update.Config{
			MetadataURL:   cfg.MetadataURL,
			PluginsDir:    cfg.PluginsDir,
			PackageExt:    cfg.PackageExt,
			ArchiveScheme: cfg.ArchiveScheme,
		},
		p,
		logger,
		fs,
		runner,
		update.WithMetadataFetcher(fetcher),
		update.WithFileFetcher(fetcher),
	)
}

// pluginFromConfig returns the configured plugin, optionally reporting a
// different running version.
func pluginFromConfig(cfg *config.Config, versionOverride string) plugin.Descriptor {
	d := plugin.FromConfig(cfg.Plugin)
	if versionOverride != "" {
		d = d.WithVersion(versionOverride)
	}
	return d
}

// newWriter returns a writer for the command's stdout in the --output format.
func newWriter(cmd *cobra.Command) (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(cmd.OutOrStdout(), format), nil
}

// writeOutput renders v to the command's stdout in the --output format.
func writeOutput(cmd *cobra.Command, v any) error {
	w, err := newWriter(cmd)
	if err != nil {
		return err
	}
	return w.Write(v)
}
