package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/chat-archive/uiverify/internal/fixture"
	"github.com/chat-archive/uiverify/internal/logging"
)

var fixtureCmd = &cobra.Command{
	Use:   "fixture",
	Short: "Serve a mock chat archive viewer for local runs",
	Long: `Fixture serves a stand-in for the chat archive viewer that exposes every
selector the verification relies on. Fault flags make the verification fail
in a specific step, which is handy to inspect error.png.`,
	RunE: runFixture,
}

var fixtureOpts fixture.Options
var fixtureAddr string

func init() {
	f := fixtureCmd.Flags()
	f.StringVar(&fixtureAddr, "addr", "127.0.0.1:3000", "Listen address")
	f.DurationVar(&fixtureOpts.ReadyDelay, "ready-delay", 0, "Keep the loading indicator up for this long")
	f.BoolVar(&fixtureOpts.StallLoading, "stall-loading", false, "Never hide the loading indicator")
	f.BoolVar(&fixtureOpts.OmitChatTestID, "omit-test-id", false, "Drop data-testid from the chat header title")
	f.BoolVar(&fixtureOpts.OmitBackLabel, "omit-back-label", false, "Drop the accessible label from the back button")
}

func runFixture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)
	defer func() { _ = logger.Sync() }()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fixture.NewServer(fixtureOpts, logger).ListenAndServe(ctx, fixtureAddr)
}
