package browser

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/chat-archive/uiverify/internal/config"
	"github.com/chat-archive/uiverify/internal/verify"
)

// Launcher starts playwright-backed sessions configured from the browser section.
type Launcher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

// NewLauncher creates a launcher
func NewLauncher(cfg config.BrowserConfig, logger *zap.Logger) *Launcher {
	return &Launcher{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "browser")),
	}
}

// Launch starts the driver, launches the browser, opens a context emulating
// the configured device and opens a page in it. Anything acquired before a
// failure is released before returning.
func (l *Launcher) Launch() (verify.Session, error) {
	pw, err := startDriver(l.cfg, l.logger)
	if err != nil {
		return nil, err
	}
	s := &Session{pw: pw, logger: l.logger}

	device, err := LookupDevice(pw.Devices, l.cfg.Device)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.cfg.Headless),
	}
	if l.cfg.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(float64(l.cfg.SlowMo))
	}
	browser, err := browserType(pw, l.cfg.Engine).Launch(launchOpts)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	s.browser = browser

	context, err := browser.NewContext(ContextOptions(device))
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not create context: %w", err)
	}
	s.context = context

	page, err := context.NewPage()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	s.page = page

	l.logger.Debug("Browser session ready",
		zap.String("engine", l.cfg.Engine),
		zap.String("device", l.cfg.Device),
		zap.Bool("headless", l.cfg.Headless))
	return s, nil
}

// DeviceNames starts the driver just long enough to read its device registry.
func (l *Launcher) DeviceNames() ([]string, error) {
	pw, err := startDriver(l.cfg, l.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := pw.Stop(); err != nil {
			l.logger.Warn("Failed to stop playwright", zap.Error(err))
		}
	}()
	return SortedDeviceNames(pw.Devices), nil
}

func startDriver(cfg config.BrowserConfig, logger *zap.Logger) (*playwright.Playwright, error) {
	runOpts := &playwright.RunOptions{Browsers: []string{cfg.Engine}}
	if cfg.InstallDriver && os.Getenv("PLAYWRIGHT_PREINSTALLED") != "1" {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("could not install playwright browsers: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		// Fallback: install the driver explicitly then retry once
		logger.Warn("Playwright failed to start, reinstalling driver", zap.Error(err))
		if ierr := playwright.Install(runOpts); ierr != nil {
			return nil, fmt.Errorf("could not start playwright: %w", errors.Join(err, ierr))
		}
		pw, err = playwright.Run(runOpts)
		if err != nil {
			return nil, fmt.Errorf("could not start playwright after retry: %w", err)
		}
	}
	return pw, nil
}

func browserType(pw *playwright.Playwright, engine string) playwright.BrowserType {
	switch engine {
	case "firefox":
		return pw.Firefox
	case "webkit":
		return pw.WebKit
	default:
		return pw.Chromium
	}
}

// Session owns the driver, browser, context and page of one run.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *Session) Goto(url string, timeout time.Duration) error {
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{Timeout: milliseconds(timeout)}); err != nil {
		return translate(fmt.Sprintf("navigate to %s", url), timeout, err)
	}
	return nil
}

func (s *Session) WaitFor(target verify.Target, state verify.State, timeout time.Duration) error {
	selectorState := playwright.WaitForSelectorStateVisible
	if state == verify.Hidden {
		selectorState = playwright.WaitForSelectorStateHidden
	}
	err := s.locator(target).WaitFor(playwright.LocatorWaitForOptions{
		State:   selectorState,
		Timeout: milliseconds(timeout),
	})
	if err != nil {
		return translate(fmt.Sprintf("%s to be %s", target, state), timeout, err)
	}
	return nil
}

func (s *Session) Click(target verify.Target, timeout time.Duration) error {
	if err := s.locator(target).Click(playwright.LocatorClickOptions{Timeout: milliseconds(timeout)}); err != nil {
		return translate(fmt.Sprintf("click %s", target), timeout, err)
	}
	return nil
}

func (s *Session) Screenshot(path string) error {
	if s.page == nil {
		return errors.New("no page to capture")
	}
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	return err
}

// Close releases page, context, browser and driver in that order. Only the
// first call does any work; later calls return the same error.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if s.context != nil {
			if err := s.context.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close context: %w", err))
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if s.pw != nil {
			if err := s.pw.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop playwright: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
		s.logger.Debug("Browser session released", zap.Bool("clean", s.closeErr == nil))
	})
	return s.closeErr
}

func (s *Session) locator(t verify.Target) playwright.Locator {
	var loc playwright.Locator
	switch t.Kind {
	case verify.ByText:
		loc = s.page.GetByText(t.Value)
	case verify.ByTestID:
		loc = s.page.GetByTestId(t.Value)
	case verify.ByLabel:
		loc = s.page.GetByLabel(t.Value)
	default:
		loc = s.page.Locator(t.Value)
	}
	if t.First {
		loc = loc.First()
	}
	return loc
}

func milliseconds(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d.Milliseconds()))
}

// translate marks playwright timeouts with verify.ErrTimeout so callers can
// tell them apart from other driver failures.
func translate(what string, timeout time.Duration, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w after %s: %w", what, verify.ErrTimeout, timeout, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
