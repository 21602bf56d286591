package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adamancini/pluginupdater/internal/output"
	"github.com/adamancini/pluginupdater/internal/schedule"
	"github.com/adamancini/pluginupdater/internal/update"
)

var watchNow bool

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check for updates on a schedule",
		Long: `Watch runs update checks on the configured schedule until interrupted.
The schedule is a duration such as 6h or a crontab such as "0 */6 * * *".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd)
		},
	}

	cmd.Flags().BoolVar(&watchNow, "now", true, "Run the first check immediately")

	return cmd
}

func runWatch(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out, err := newWriter(cmd)
	if err != nil {
		return err
	}
	out.Stream()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := update.NewAsyncPool(cfg.Workers).WithLogger(logger)
	updater := newUpdater(cfg, pluginFromConfig(cfg, ""), logger, pool)

	report := func(c *update.Cycle) {
		go func() {
			if err := c.Wait(ctx); err != nil {
				return
			}
			if err := out.Write(output.CycleReport{Report: c.Report()}); err != nil {
				logger.WithError(err).Warn("Failed to write cycle report")
			}
		}()
	}

	watcher, err := schedule.NewWatcher(cfg.Schedule, updater, logger, report, watchNow)
	if err != nil {
		return err
	}

	logger.Infof("Watching for updates to %s (schedule %s)", cfg.Plugin.Name, cfg.Schedule)
	watcher.Start(ctx)

	<-ctx.Done()
	logger.Info("Stopping update watcher")

	if err := watcher.Stop(); err != nil {
		logger.WithError(err).Debug("Scheduler shutdown")
	}
	// Let an in-progress install finish rather than leaving a half-moved package.
	pool.Wait()
	return nil
}
