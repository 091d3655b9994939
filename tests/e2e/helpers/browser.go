package helpers

import (
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/chat-archive/uiverify/internal/browser"
	"github.com/chat-archive/uiverify/internal/config"
	"github.com/chat-archive/uiverify/internal/fixture"
	"github.com/chat-archive/uiverify/internal/verify"
)

// Env is one browser test: a fixture app, a configuration pointing at it
// and a launcher that counts session releases.
type Env struct {
	Config   *config.Config
	Launcher *CountingLauncher
	Logger   *zap.Logger

	clickTimeout time.Duration
}

// NewEnv starts the fixture with opts and prepares a config targeting it.
// Artifacts go to a per-test temporary directory.
func NewEnv(t *testing.T, opts fixture.Options) *Env {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	srv := httptest.NewServer(fixture.NewServer(opts, logger).Handler())
	t.Cleanup(srv.Close)

	cfg, err := config.Unmarshal(config.NewViper())
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Target.BaseURL = srv.URL + "/"
	cfg.Output.Dir = t.TempDir()
	cfg.Browser.Headless = os.Getenv("HEADLESS") != "false"
	cfg.Browser.InstallDriver = os.Getenv("PLAYWRIGHT_PREINSTALLED") != "1"

	return &Env{
		Config:   cfg,
		Launcher: &CountingLauncher{inner: browser.NewLauncher(cfg.Browser, logger)},
		Logger:   logger,
	}
}

// ShortenTimeouts keeps failing runs quick. Clicks, which otherwise use the
// playwright default, are bounded by d as well.
func (e *Env) ShortenTimeouts(d time.Duration) {
	e.Config.Timeouts = config.TimeoutsConfig{Loading: d, ListView: d, ChatView: d, BackToList: d}
	e.clickTimeout = d
}

// Run executes the chat archive scenario once. A browser that cannot be
// started skips the test.
func (e *Env) Run(t *testing.T) *verify.Result {
	t.Helper()
	scenario := verify.ChatArchiveScenario(e.Config)
	for i := range scenario.Steps {
		if scenario.Steps[i].Action == verify.Click && scenario.Steps[i].Timeout == 0 {
			scenario.Steps[i].Timeout = e.clickTimeout
		}
	}
	r := verify.NewRunner(e.Launcher, scenario, e.Config.Output.Dir, verify.WithLogger(e.Logger))
	res, err := r.Run(t.Context())
	if err != nil {
		t.Skipf("browser unavailable: %v", err)
	}
	return res
}

// CountingLauncher wraps a launcher and counts Close calls on its sessions.
type CountingLauncher struct {
	inner    verify.Launcher
	Launches atomic.Int32
	Closes   atomic.Int32
}

func (l *CountingLauncher) Launch() (verify.Session, error) {
	s, err := l.inner.Launch()
	if err != nil {
		return nil, err
	}
	l.Launches.Add(1)
	return &countingSession{Session: s, closes: &l.Closes}, nil
}

type countingSession struct {
	verify.Session
	closes *atomic.Int32
}

func (s *countingSession) Close() error {
	s.closes.Add(1)
	return s.Session.Close()
}
