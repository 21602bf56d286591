package update

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	// DefaultPackageExt is the file extension of a plugin package.
	DefaultPackageExt = ".phar"
	// TempDirName is the download staging directory under the plugin data dir.
	TempDirName = "tmp"
)

// CompletionFunc receives the outcome of a finished download.
type CompletionFunc func(ctx context.Context, plugin Plugin, result DownloadResult)

// Orchestrator stages package downloads into the plugin's temp directory.
// The transfer itself runs on the TaskRunner; Start never blocks on it.
type Orchestrator struct {
	fs         afero.Fs
	log        logrus.FieldLogger
	runner     TaskRunner
	fetcher    FileFetcher
	onComplete CompletionFunc
	ext        string
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithPackageExt sets the extension given to downloaded packages.
func WithPackageExt(ext string) OrchestratorOption {
	return func(o *Orchestrator) {
		if ext != "" {
			o.ext = ext
		}
	}
}

// NewOrchestrator creates an orchestrator that reports each finished download
// to onComplete.
func NewOrchestrator(fs afero.Fs, log logrus.FieldLogger, runner TaskRunner, fetcher FileFetcher, onComplete CompletionFunc, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		fs:         fs,
		log:        log,
		runner:     runner,
		fetcher:    fetcher,
		onComplete: onComplete,
		ext:        DefaultPackageExt,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TempDir returns the staging directory for plugin.
func TempDir(plugin Plugin) string {
	return filepath.Join(plugin.DataDir(), TempDirName)
}

// DownloadPath returns where the package for plugin is staged.
func (o *Orchestrator) DownloadPath(plugin Plugin) string {
	return filepath.Join(TempDir(plugin), plugin.Name()+o.ext)
}

// Start submits the download of url for plugin. The staging directory is
// created best-effort; if it is missing the transfer fails and reports
// status 0.
func (o *Orchestrator) Start(ctx context.Context, plugin Plugin, url string) {
	dst := o.DownloadPath(plugin)
	log := o.log.WithField("plugin", plugin.Name())

	if err := o.fs.MkdirAll(TempDir(plugin), 0755); err != nil {
		log.WithError(err).Debug("Could not create download directory")
	}

	o.runner.Submit(ctx, func(ctx context.Context) {
		status := 0
		// Deferred so completion is reported even if the fetch panics.
		defer func() {
			if o.onComplete != nil {
				o.onComplete(ctx, plugin, DownloadResult{LocalPath: dst, HTTPStatus: status})
			}
		}()

		s, err := o.fetcher.FetchToFile(ctx, url, dst)
		if err != nil {
			log.WithError(err).Warn("Download failed")
			return
		}
		status = s
	})
}
