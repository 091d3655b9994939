package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chat-archive/uiverify/internal/browser"
	"github.com/chat-archive/uiverify/internal/config"
	"github.com/chat-archive/uiverify/internal/logging"
	"github.com/chat-archive/uiverify/internal/metrics"
	"github.com/chat-archive/uiverify/internal/preflight"
	"github.com/chat-archive/uiverify/internal/report"
	"github.com/chat-archive/uiverify/internal/verify"
)

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)
	defer func() { _ = logger.Sync() }()

	res, err := runOnce(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("Verification could not start", zap.Error(err))
		return err
	}
	observe(metrics.NewRecorder("uiverify", logger), cfg, res, logger)

	if !res.Passed() && cfg.Strict {
		return errVerificationFailed
	}
	return nil
}

// runOnce performs one verification run against cfg and writes its report.
func runOnce(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*verify.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Target.Preflight {
		preflight.Log(ctx, logger, cfg.Target.BaseURL)
	}

	launcher := browser.NewLauncher(cfg.Browser, logger)
	r := verify.NewRunner(launcher, verify.ChatArchiveScenario(cfg), cfg.Output.Dir, verify.WithLogger(logger))
	res, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Output.Report {
		path, err := report.Write(cfg.Output.Dir, res)
		if err != nil {
			logger.Warn("Failed to write run report", zap.Error(err))
		} else {
			logger.Info("Run report written", zap.String("path", path))
		}
	}
	return res, nil
}

func observe(rec *metrics.Recorder, cfg *config.Config, res *verify.Result, logger *zap.Logger) {
	rec.Observe(res)
	if cfg.Output.MetricsFile == "" {
		return
	}
	if err := rec.WriteTextfile(cfg.Output.MetricsFile); err != nil {
		logger.Warn("Failed to write metrics", zap.Error(err))
	}
}

// runTimeout bounds one scheduled run: every wait at its limit plus slack
// for navigation, clicks and browser start-up.
func runTimeout(cfg *config.Config) time.Duration {
	t := cfg.Timeouts
	return t.Loading + t.ListView + t.ChatView + t.BackToList + 2*time.Minute
}
