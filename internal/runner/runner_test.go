package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingTask struct {
	name     string
	schedule string
	runs     atomic.Int32
	inFlight atomic.Int32
	started  chan struct{}
	block    time.Duration
}

func (t *countingTask) Name() string           { return t.name }
func (t *countingTask) Schedule() string       { return t.schedule }
func (t *countingTask) Timeout() time.Duration { return time.Minute }

func (t *countingTask) Run(ctx context.Context) error {
	t.inFlight.Add(1)
	defer t.inFlight.Add(-1)
	t.runs.Add(1)
	select {
	case t.started <- struct{}{}:
	default:
	}
	time.Sleep(t.block)
	return nil
}

func TestTaskRegistry(t *testing.T) {
	reg := NewTaskRegistry()
	reg.Register(&countingTask{name: "b"})
	reg.Register(&countingTask{name: "a"})
	reg.Register(&countingTask{name: "a", schedule: "@hourly"})

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name())
	assert.Equal(t, "@hourly", all[0].Schedule())
	assert.Equal(t, "b", all[1].Name())
}

func TestParser(t *testing.T) {
	for _, expr := range []string{"@every 5m", "*/30 * * * * *", "0 * * * *", "@hourly"} {
		_, err := Parser.Parse(expr)
		assert.NoError(t, err, expr)
	}
	_, err := Parser.Parse("every five minutes")
	assert.Error(t, err)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	reg := NewTaskRegistry()
	reg.Register(&countingTask{name: "broken", schedule: "not a schedule"})

	err := NewRunner(reg, zap.NewNop()).Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule task broken")
}

func TestStartRunsOnStartAndStopsOnCancel(t *testing.T) {
	task := &countingTask{name: "verify", schedule: "@every 1h", started: make(chan struct{}, 1)}
	reg := NewTaskRegistry()
	reg.Register(task)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewRunner(reg, zap.NewNop(), WithRunOnStart()).Start(ctx)
	}()

	select {
	case <-task.started:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run on start")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, int32(1), task.runs.Load())
}

func TestOverlappingTicksAreSkipped(t *testing.T) {
	task := &countingTask{name: "slow", schedule: "@every 1s", started: make(chan struct{}, 1), block: 2500 * time.Millisecond}
	reg := NewTaskRegistry()
	reg.Register(task)

	ctx, cancel := context.WithTimeout(context.Background(), 2200*time.Millisecond)
	defer cancel()

	err := NewRunner(reg, zap.NewNop(), WithRunOnStart()).Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), task.runs.Load(), "ticks during a running execution must be skipped")
}

func TestStopWaitsForRunOnStart(t *testing.T) {
	for i := 0; i < 20; i++ {
		task := &countingTask{name: "verify", schedule: "@every 1h", block: 50 * time.Millisecond}
		reg := NewTaskRegistry()
		reg.Register(task)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(time.Duration(i%4) * time.Millisecond)
			cancel()
		}()

		err := NewRunner(reg, zap.NewNop(), WithRunOnStart()).Start(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(0), task.inFlight.Load(), "no run may outlive Start")

		runs := task.runs.Load()
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, runs, task.runs.Load(), "no run may begin after Start returns")
		cancel()
	}
}
