package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chat-archive/uiverify/internal/config"
	"github.com/chat-archive/uiverify/internal/logging"
	"github.com/chat-archive/uiverify/internal/metrics"
	"github.com/chat-archive/uiverify/internal/runner"
	"github.com/chat-archive/uiverify/internal/runner/tasks"
	"github.com/chat-archive/uiverify/internal/verify"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Repeat the verification on a cron schedule",
	Long: `Watch runs the verification immediately and then on the configured
schedule (cron expression or descriptor such as "@every 5m"). A tick that
fires while a run is still in progress is skipped, so only one browser
session is ever open. Changes to the config file are picked up before the
next run.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("schedule", "@every 5m", "Cron schedule for repeated runs")
	if err := v.BindPFlag("watch.schedule", watchCmd.Flags().Lookup("schedule")); err != nil {
		panic(err)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := runner.Parser.Parse(cfg.Watch.Schedule); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", cfg.Watch.Schedule, err)
	}
	logger := logging.New(cfg.Logging)
	defer func() { _ = logger.Sync() }()

	var current atomic.Pointer[config.Config]
	current.Store(cfg)
	config.OnChange(v, func(next *config.Config, err error) {
		if err != nil {
			logger.Warn("Ignoring invalid config change", zap.Error(err))
			return
		}
		current.Store(next)
		logger.Info("Configuration reloaded")
	})

	recorder := metrics.NewRecorder("uiverify", logger)
	task := tasks.NewVerificationTask(
		cfg.Watch.Schedule,
		func() time.Duration {
			return runTimeout(current.Load())
		},
		func(ctx context.Context) (*verify.Result, error) {
			return runOnce(ctx, current.Load(), logger)
		},
		func(res *verify.Result) {
			observe(recorder, current.Load(), res, logger)
		},
		logger,
	)

	registry := runner.NewTaskRegistry()
	registry.Register(task)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	err = runner.NewRunner(registry, logger, runner.WithRunOnStart()).Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
