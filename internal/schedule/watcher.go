// Package schedule runs update check cycles periodically.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/adamancini/pluginupdater/internal/update"
)

// Checker runs one update cycle.
type Checker interface {
	Check(ctx context.Context) (*update.Cycle, error)
}

// ReportFunc receives every cycle the watcher started.
type ReportFunc func(*update.Cycle)

// Watcher triggers Checker on a schedule.
type Watcher struct {
	scheduler gocron.Scheduler
	checker   Checker
	log       logrus.FieldLogger
	onCycle   ReportFunc
	ctx       context.Context
}

// Definition turns a schedule string into a gocron job definition. A Go
// duration runs at that interval; five or six fields are read as a crontab,
// six meaning a leading seconds field.
func Definition(schedule string) (gocron.JobDefinition, error) {
	schedule = strings.TrimSpace(schedule)
	if d, err := time.ParseDuration(schedule); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("schedule interval must be positive: %s", schedule)
		}
		return gocron.DurationJob(d), nil
	}

	switch len(strings.Fields(schedule)) {
	case 5:
		return gocron.CronJob(schedule, false), nil
	case 6:
		return gocron.CronJob(schedule, true), nil
	}
	return nil, fmt.Errorf("invalid schedule %q: expected a duration or a crontab", schedule)
}

// NewWatcher creates a watcher that calls checker on schedule. When
// runImmediately is set the first cycle starts as soon as Start is called.
func NewWatcher(schedule string, checker Checker, logger logrus.FieldLogger, onCycle ReportFunc, runImmediately bool) (*Watcher, error) {
	def, err := Definition(schedule)
	if err != nil {
		return nil, err
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	w := &Watcher{
		scheduler: s,
		checker:   checker,
		log:       logger,
		onCycle:   onCycle,
		ctx:       context.Background(),
	}

	opts := []gocron.JobOption{
		gocron.WithName("update-check"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if runImmediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	if _, err := s.NewJob(def, gocron.NewTask(w.run), opts...); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule update check: %w", err)
	}

	return w, nil
}

// Start begins running scheduled cycles with ctx.
func (w *Watcher) Start(ctx context.Context) {
	w.ctx = ctx
	w.scheduler.Start()
	if next, err := w.NextRun(); err == nil {
		w.log.Debugf("Next update check at %s", next.Format(time.RFC3339))
	}
}

// NextRun returns when the next cycle is due.
func (w *Watcher) NextRun() (time.Time, error) {
	jobs := w.scheduler.Jobs()
	if len(jobs) == 0 {
		return time.Time{}, errors.New("no update check scheduled")
	}
	return jobs[0].NextRun()
}

// Stop shuts the scheduler down, waiting for a running cycle's decision.
func (w *Watcher) Stop() error {
	return w.scheduler.Shutdown()
}

func (w *Watcher) run() {
	cycle, err := w.checker.Check(w.ctx)
	if errors.Is(err, update.ErrCycleInFlight) {
		w.log.Debug("Skipping update check, previous cycle still running")
		return
	}
	if err != nil {
		w.log.WithError(err).Warn("Update check failed")
		return
	}
	if w.onCycle != nil {
		w.onCycle(cycle)
	}
}
