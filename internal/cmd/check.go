package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/pluginupdater/internal/output"
	"github.com/adamancini/pluginupdater/internal/update"
)

var (
	checkWait    bool
	checkTimeout time.Duration
	checkCurrent string
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one update check",
		Long: `Check fetches the latest release metadata, compares it with the running
version and, when a newer release exists for an enabled plugin, downloads
and installs it.

Examples:
  pluginupdater check                    # Check and install if newer
  pluginupdater check -o json            # Machine-readable report
  pluginupdater check --current 1.0.0    # Pretend a different version is running`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd)
		},
	}

	cmd.Flags().BoolVar(&checkWait, "wait", true, "Wait for a started download and install to finish")
	cmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "Maximum time to wait for the install")
	cmd.Flags().StringVar(&checkCurrent, "current", "", "Override the running plugin version")

	return cmd
}

func runCheck(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	pool := update.NewAsyncPool(cfg.Workers).WithLogger(logger)
	updater := newUpdater(cfg, pluginFromConfig(cfg, checkCurrent), logger, pool)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cycle, err := updater.Check(ctx)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}

	if checkWait {
		waitCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		if err := cycle.Wait(waitCtx); err != nil {
			return fmt.Errorf("waiting for install: %w", err)
		}
	}

	report := cycle.Report()
	if err := writeOutput(cmd, output.CycleReport{Report: report}); err != nil {
		return err
	}

	switch report.Decision.Outcome {
	case update.OutcomeFetchError, update.OutcomeInvalidPayload:
		return fmt.Errorf("update check failed: %s", report.Decision.Outcome)
	}
	if report.Install != nil && !report.Install.Installed {
		return fmt.Errorf("update was not installed")
	}
	return nil
}
