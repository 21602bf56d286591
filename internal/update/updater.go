package update

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var (
	// ErrCycleInFlight is returned by Check while a previous cycle is still
	// downloading or installing.
	ErrCycleInFlight = errors.New("update cycle already in progress")
	// ErrNoMetadataURL is returned by Check when no metadata URL is configured.
	ErrNoMetadataURL = errors.New("no metadata URL configured")
)

// Config holds the Updater settings that are not collaborators.
type Config struct {
	MetadataURL   string
	PluginsDir    string
	PackageExt    string
	ArchiveScheme string
}

// Report is the record of one check cycle.
type Report struct {
	ID        string         `json:"id" yaml:"id"`
	Plugin    string         `json:"plugin" yaml:"plugin"`
	Current   string         `json:"current_version" yaml:"current_version"`
	StartedAt time.Time      `json:"started_at" yaml:"started_at"`
	Decision  Decision       `json:"decision" yaml:"decision"`
	Install   *InstallResult `json:"install,omitempty" yaml:"install,omitempty"`
}

// Cycle tracks a running check cycle.
type Cycle struct {
	mu     sync.Mutex
	report Report
	done   chan struct{}
}

// Report returns a copy of the cycle's current record. Install stays nil
// until the cycle is done.
func (c *Cycle) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Done returns a channel closed once the cycle's background work, if any,
// has finished.
func (c *Cycle) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the cycle finishes or ctx is done.
func (c *Cycle) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Updater runs check cycles for one plugin. At most one cycle is in flight
// at a time; a cycle that starts a download stays in flight until the
// install step has run or the context passed to Check is cancelled.
type Updater struct {
	cfg        Config
	plugin     Plugin
	log        logrus.FieldLogger
	fs         afero.Fs
	runner     TaskRunner
	metadata   MetadataFetcher
	files      FileFetcher
	engineOpts []EngineOption
	inFlight   atomic.Bool
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithMetadataFetcher replaces the default HTTP metadata fetcher.
func WithMetadataFetcher(f MetadataFetcher) UpdaterOption {
	return func(u *Updater) {
		u.metadata = f
	}
}

// WithFileFetcher replaces the default HTTP package fetcher.
func WithFileFetcher(f FileFetcher) UpdaterOption {
	return func(u *Updater) {
		u.files = f
	}
}

// WithEngineOptions passes options to the Engine built for each cycle.
func WithEngineOptions(opts ...EngineOption) UpdaterOption {
	return func(u *Updater) {
		u.engineOpts = append(u.engineOpts, opts...)
	}
}

// NewUpdater creates an Updater for plugin. Downloads run on runner and
// touch the filesystem only through fs.
func NewUpdater(cfg Config, plugin Plugin, log logrus.FieldLogger, fs afero.Fs, runner TaskRunner, opts ...UpdaterOption) *Updater {
	u := &Updater{
		cfg:    cfg,
		plugin: plugin,
		log:    log,
		fs:     fs,
		runner: runner,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.metadata == nil || u.files == nil {
		fetcher := NewHTTPFetcher(fs)
		if u.metadata == nil {
			u.metadata = fetcher
		}
		if u.files == nil {
			u.files = fetcher
		}
	}
	return u
}

// InFlight reports whether a cycle is currently running.
func (u *Updater) InFlight() bool {
	return u.inFlight.Load()
}

// Check runs one cycle: fetch the metadata, decide, and start the download
// when a newer release is found for an enabled plugin. It returns once the
// decision is made; use Cycle.Wait to block on the install.
func (u *Updater) Check(ctx context.Context) (*Cycle, error) {
	if u.cfg.MetadataURL == "" {
		return nil, ErrNoMetadataURL
	}
	if !u.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCycleInFlight
	}

	cycle := &Cycle{
		report: Report{
			ID:        uuid.NewString(),
			Plugin:    u.plugin.Name(),
			Current:   u.plugin.Version(),
			StartedAt: time.Now(),
		},
		done: make(chan struct{}),
	}
	log := u.log.WithField("cycle", cycle.report.ID)

	installed := make(chan InstallResult, 1)
	installer := NewInstaller(u.fs, log, u.cfg.PluginsDir,
		WithInstallExt(u.cfg.PackageExt),
		WithArchiveScheme(u.cfg.ArchiveScheme),
	)
	orchestrator := NewOrchestrator(u.fs, log, u.runner, u.files,
		func(_ context.Context, plugin Plugin, r DownloadResult) {
			// Sent from a defer so a panicking install still ends the cycle.
			result := InstallResult{HTTPStatus: r.HTTPStatus}
			defer func() { installed <- result }()
			result = installer.OnDownloadComplete(plugin, r.LocalPath, r.HTTPStatus)
		},
		WithPackageExt(u.cfg.PackageExt),
	)
	engine := NewEngine(log, orchestrator, u.engineOpts...)

	meta := u.metadata.FetchMetadata(ctx, u.cfg.MetadataURL)
	decision := engine.Handle(ctx, meta, u.plugin)
	cycle.mu.Lock()
	cycle.report.Decision = decision
	cycle.mu.Unlock()

	if !decision.DownloadStarted {
		u.finish(cycle)
		return cycle, nil
	}

	go func() {
		select {
		case result := <-installed:
			cycle.mu.Lock()
			cycle.report.Install = &result
			cycle.mu.Unlock()
		case <-ctx.Done():
			// A runner that drops the task never reports back.
			log.WithError(ctx.Err()).Warn("Update cycle abandoned before the install reported")
		}
		u.finish(cycle)
	}()
	return cycle, nil
}

func (u *Updater) finish(c *Cycle) {
	u.inFlight.Store(false)
	close(c.done)
}
