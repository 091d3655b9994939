package runner

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chat-archive/uiverify/internal/logging"
)

// Parser accepts standard five-field expressions, an optional leading
// seconds field, and descriptors such as "@hourly" or "@every 5m".
var Parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Runner executes registered tasks on their schedules. A task never
// overlaps with itself: a tick that fires while the previous execution is
// still running is skipped.
type Runner struct {
	cron       *cron.Cron
	registry   *TaskRegistry
	logger     *zap.Logger
	runOnStart bool
	wg         sync.WaitGroup
}

// Option configures a Runner.
type Option func(*Runner)

// WithRunOnStart executes every task once as soon as the runner starts
// instead of waiting for the first tick.
func WithRunOnStart() Option {
	return func(r *Runner) {
		r.runOnStart = true
	}
}

// NewRunner creates a new task runner
func NewRunner(registry *TaskRegistry, logger *zap.Logger, opts ...Option) *Runner {
	logger = logger.With(zap.String("component", "runner"))
	cronLogger := logging.NewCronLogger(logger)
	r := &Runner{
		cron: cron.New(
			cron.WithParser(Parser),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		registry: registry,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start schedules all tasks and blocks until ctx is cancelled or the process
// receives SIGINT/SIGTERM.
func (r *Runner) Start(ctx context.Context) error {
	r.logger.Info("Starting task runner")

	var initial []cron.EntryID
	for _, task := range r.registry.All() {
		r.logger.Info("Registering task", zap.String("task", task.Name()), zap.String("schedule", task.Schedule()))

		id, err := r.cron.AddFunc(task.Schedule(), func() {
			r.executeTask(ctx, task)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule task %s: %w", task.Name(), err)
		}
		initial = append(initial, id)
	}

	r.cron.Start()
	r.logger.Info("Task runner started")

	if r.runOnStart {
		for _, id := range initial {
			// WrappedJob carries the SkipIfStillRunning guard.
			job := r.cron.Entry(id).WrappedJob
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				job.Run()
			}()
		}
	}

	return r.waitForShutdown(ctx)
}

// executeTask runs a single task with timeout and error handling
func (r *Runner) executeTask(ctx context.Context, task Task) {
	r.wg.Add(1)
	defer r.wg.Done()

	if ctx.Err() != nil {
		return
	}

	taskCtx, cancel := context.WithTimeout(ctx, task.Timeout())
	defer cancel()

	logger := r.logger.With(zap.String("task", task.Name()))
	logger.Info("Executing task")

	start := time.Now()
	err := task.Run(taskCtx)
	duration := time.Since(start)

	if err != nil {
		logger.Warn("Task failed", zap.Duration("duration", duration), zap.Error(err))
	} else {
		logger.Info("Task completed", zap.Duration("duration", duration))
	}
}

// Stop waits for running tasks to complete and stops the scheduler
func (r *Runner) Stop() {
	r.logger.Info("Stopping task runner")

	stopCtx := r.cron.Stop()
	r.wg.Wait()
	<-stopCtx.Done()

	r.logger.Info("Task runner stopped")
}

// waitForShutdown waits for termination signals
func (r *Runner) waitForShutdown(ctx context.Context) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		r.logger.Info("Received signal", zap.String("signal", sig.String()))
		r.Stop()
		return nil
	case <-ctx.Done():
		r.logger.Info("Context cancelled")
		r.Stop()
		return ctx.Err()
	}
}
