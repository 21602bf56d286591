package update

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ReleaseDateLayout formats the release date in update notices.
const ReleaseDateLayout = "02-01-2006"

// Engine interprets metadata payloads and decides whether to download.
type Engine struct {
	log        logrus.FieldLogger
	downloader DownloadStarter
	location   *time.Location
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLocation sets the time zone used to print release dates.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		e.location = loc
	}
}

// NewEngine creates an engine that hands newer releases to downloader.
// A nil downloader disables automatic downloads.
func NewEngine(log logrus.FieldLogger, downloader DownloadStarter, opts ...EngineOption) *Engine {
	e := &Engine{
		log:        log,
		downloader: downloader,
		location:   time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle processes one metadata payload for plugin.
// It only logs, except when a newer release is found for an enabled plugin,
// in which case the download is started.
func (e *Engine) Handle(ctx context.Context, meta *Metadata, plugin Plugin) Decision {
	log := e.log.WithField("plugin", plugin.Name())
	log.Debug("Handling latest update data.")

	if meta == nil {
		log.Warn("Failed to get latest update data, Error: no response")
		return Decision{Outcome: OutcomeFetchError}
	}
	if meta.Error != "" {
		log.Warnf("Failed to get latest update data, Error: %s Code: %d", meta.Error, meta.HTTPCode)
		return Decision{Outcome: OutcomeFetchError}
	}

	if missing := meta.Response.missingFields(); len(missing) > 0 {
		log.WithField("missing", strings.Join(missing, ",")).
			Warn("Failed to verify update data/incorrect format provided.")
		return Decision{Outcome: OutcomeInvalidPayload}
	}

	release := meta.Response
	candidate := *release.Version
	decision := Decision{Candidate: candidate}

	cmp, err := CompareVersions(strings.ToLower(plugin.Version()), strings.ToLower(candidate))
	if err != nil {
		log.WithError(err).Warn("Failed to verify update data/malformed version provided.")
		decision.Outcome = OutcomeInvalidPayload
		return decision
	}

	switch {
	case cmp == 0:
		log.Debug("Plugin up-to-date !")
		decision.Outcome = OutcomeUpToDate
		return decision
	case cmp < 0:
		log.Debug("Running a build not yet released, this can cause unintended side effects (including possible data loss)")
		decision.Outcome = OutcomeStale
		return decision
	}

	decision.Outcome = OutcomeNewer
	e.announce(log, release)

	if !plugin.Enabled() || e.downloader == nil {
		return decision
	}

	log.Warn("§cDownloading & Installing Update, please do not abruptly stop server/plugin.")
	log.Debugf("Begin download of new update from '%s'.", release.DownloadLink)
	e.downloader.Start(ctx, plugin, release.DownloadLink)
	decision.DownloadStarted = true

	return decision
}

// announce logs the multi-line update notice.
func (e *Engine) announce(log logrus.FieldLogger, release *Release) {
	lines := strings.Split(release.PatchNotes, "\n")
	released := release.Time.Time().In(e.location).Format(ReleaseDateLayout)

	log.Warn("--- UPDATE AVAILABLE ---")
	log.Warnf("§cVersion     :: %s", *release.Version)
	log.Warnf("§bReleased on :: %s", released)
	log.Warnf("§aPatch Notes :: %s", lines[0])
	for _, line := range lines[1:] {
		log.Warnf("                §c%s", line)
	}
	log.Warnf("§dUpdate Link :: %s", *release.Link)
}
