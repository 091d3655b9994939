package runner

import (
	"context"
	"sort"
	"time"
)

// Task represents a job run on a cron schedule
type Task interface {
	// Name returns the unique name of the task
	Name() string

	// Schedule returns the cron expression or descriptor (e.g. "@every 5m")
	Schedule() string

	// Run executes the task once
	Run(ctx context.Context) error

	// Timeout returns the maximum time a single execution may take
	Timeout() time.Duration
}

// TaskRegistry holds all registered tasks
type TaskRegistry struct {
	tasks map[string]Task
}

// NewTaskRegistry creates a new task registry
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: make(map[string]Task),
	}
}

// Register adds a task to the registry, replacing any task with the same name
func (r *TaskRegistry) Register(task Task) {
	r.tasks[task.Name()] = task
}

// All returns all registered tasks ordered by name
func (r *TaskRegistry) All() []Task {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		tasks = append(tasks, r.tasks[name])
	}
	return tasks
}
