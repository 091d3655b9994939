package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chat-archive/uiverify/internal/runner"
	"github.com/chat-archive/uiverify/internal/verify"
)

// RunFunc performs one verification run.
type RunFunc func(ctx context.Context) (*verify.Result, error)

// VerificationTask repeats the verification scenario on a schedule
type VerificationTask struct {
	schedule string
	timeout  func() time.Duration
	run      RunFunc
	onResult func(*verify.Result)
	logger   *zap.Logger

	consecutiveFailures int
}

// NewVerificationTask creates the scheduled verification task. timeout is
// consulted before every execution so reloaded settings apply to the next
// run. onResult, if not nil, receives every result including failed ones.
func NewVerificationTask(schedule string, timeout func() time.Duration, run RunFunc, onResult func(*verify.Result), logger *zap.Logger) runner.Task {
	return &VerificationTask{
		schedule: schedule,
		timeout:  timeout,
		run:      run,
		onResult: onResult,
		logger:   logger.With(zap.String("component", "verification-task")),
	}
}

// Name returns the task name
func (t *VerificationTask) Name() string {
	return "ui-verification"
}

// Schedule returns the configured cron schedule
func (t *VerificationTask) Schedule() string {
	return t.schedule
}

// Timeout returns the deadline for the next execution
func (t *VerificationTask) Timeout() time.Duration {
	return t.timeout()
}

// Run executes the scenario once. A failed verification is returned as the
// task error so the runner logs it; the run itself has already captured its
// diagnostics.
func (t *VerificationTask) Run(ctx context.Context) error {
	res, err := t.run(ctx)
	if err != nil {
		t.consecutiveFailures++
		return err
	}
	if t.onResult != nil {
		t.onResult(res)
	}
	if !res.Passed() {
		t.consecutiveFailures++
		t.logger.Warn("Verification failed", zap.Int("consecutive_failures", t.consecutiveFailures))
		return res.Err
	}
	if t.consecutiveFailures > 0 {
		t.logger.Info("Verification recovered", zap.Int("after_failures", t.consecutiveFailures))
	}
	t.consecutiveFailures = 0
	return nil
}

// ConsecutiveFailures returns how many runs in a row have failed.
func (t *VerificationTask) ConsecutiveFailures() int {
	return t.consecutiveFailures
}
