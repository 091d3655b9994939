package verify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner executes a scenario against one browser session per run.
type Runner struct {
	launcher  Launcher
	scenario  Scenario
	outputDir string
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a runner writing artifacts to outputDir.
func NewRunner(launcher Launcher, scenario Scenario, outputDir string, opts ...Option) *Runner {
	r := &Runner{
		launcher:  launcher,
		scenario:  scenario,
		outputDir: outputDir,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "verify"), zap.String("scenario", scenario.Name))
	return r
}

// Run launches a session, executes every step in order and releases the
// session. A step failure never escapes: it is logged, a diagnostic
// screenshot is attempted and the failure is stored in Result.Err. The
// returned error is reserved for failures before the session exists.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Scenario:  r.scenario.Name,
		BaseURL:   r.scenario.BaseURL,
		Device:    r.scenario.Device,
		StartedAt: r.now(),
	}
	logger := r.logger.With(zap.String("run_id", result.RunID))

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := r.clearArtifacts(); err != nil {
		return nil, err
	}

	session, err := r.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser session: %w", err)
	}

	func() {
		defer func() {
			if cerr := session.Close(); cerr != nil {
				logger.Warn("Failed to release browser session", zap.Error(cerr))
			}
		}()

		logger.Info("Verification started", zap.String("base_url", result.BaseURL), zap.String("device", result.Device))
		if err := r.execute(ctx, session, result, logger); err != nil {
			result.Err = err
			logger.Error("An error occurred", zap.String("step", FailedStep(err)), zap.Error(err))
			r.captureDiagnostic(session, result, logger)
		}
	}()

	result.FinishedAt = r.now()
	if result.Passed() {
		logger.Info("Verification passed", zap.Duration("duration", result.Duration()), zap.Int("artifacts", len(result.Artifacts)))
	}
	return result, nil
}

// clearArtifacts removes screenshots left by a previous run so that the
// directory only ever reflects the latest one.
func (r *Runner) clearArtifacts() error {
	for _, name := range append(r.scenario.Screenshots(), ErrorScreenshot) {
		err := os.Remove(filepath.Join(r.outputDir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove stale artifact: %w", err)
		}
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, page Page, result *Result, logger *zap.Logger) error {
	for i, step := range r.scenario.Steps {
		sr := StepResult{Name: step.Name, Action: step.Action.String()}
		if step.Action != Navigate {
			sr.Target = step.Target.String()
		}

		err := ctx.Err()
		if err == nil {
			start := r.now()
			err = r.runStep(page, step)
			if err == nil && step.Screenshot != "" {
				err = r.capture(page, step.Screenshot, false, result)
			}
			sr.Duration = r.now().Sub(start)
		}

		if err != nil {
			sr.Status = StepFailed
			sr.Error = err.Error()
			result.Steps = append(result.Steps, sr)
			for _, rest := range r.scenario.Steps[i+1:] {
				result.Steps = append(result.Steps, StepResult{Name: rest.Name, Action: rest.Action.String(), Status: StepSkipped})
			}
			return &StepError{Step: step.Name, Err: err}
		}

		sr.Status = StepPassed
		result.Steps = append(result.Steps, sr)
		logger.Debug("Step passed", zap.String("step", step.Name), zap.Duration("duration", sr.Duration))
	}
	return nil
}

func (r *Runner) runStep(page Page, step Step) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	switch step.Action {
	case Navigate:
		return page.Goto(step.URL, step.Timeout)
	case WaitHidden:
		return page.WaitFor(step.Target, Hidden, step.Timeout)
	case WaitVisible:
		return page.WaitFor(step.Target, Visible, step.Timeout)
	case Click:
		return page.Click(step.Target, step.Timeout)
	default:
		return fmt.Errorf("unsupported action %d", int(step.Action))
	}
}

func (r *Runner) capture(page Page, name string, diagnostic bool, result *Result) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	path := filepath.Join(r.outputDir, name)
	if err := page.Screenshot(path); err != nil {
		return fmt.Errorf("screenshot %s: %w", name, err)
	}
	artifact, err := inspectArtifact(name, path)
	artifact.Diagnostic = diagnostic
	if err != nil {
		return err
	}
	result.Artifacts = append(result.Artifacts, artifact)
	return nil
}

// captureDiagnostic writes error.png from whatever state the page is in.
// Failure to do so is logged and otherwise ignored.
func (r *Runner) captureDiagnostic(page Page, result *Result, logger *zap.Logger) {
	if err := r.capture(page, ErrorScreenshot, true, result); err != nil {
		logger.Warn("Failed to capture diagnostic screenshot", zap.Error(err))
		return
	}
	logger.Info("Diagnostic screenshot captured", zap.String("path", filepath.Join(r.outputDir, ErrorScreenshot)))
}
