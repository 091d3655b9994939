package verify

import (
	"fmt"
	"image/png"
	"os"
	"time"
)

// StepStatus is the outcome of a single step.
type StepStatus string

const (
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult records how one step went.
type StepResult struct {
	Name     string
	Action   string
	Target   string
	Status   StepStatus
	Duration time.Duration
	Error    string
}

// Artifact is a screenshot written during a run.
type Artifact struct {
	Name       string
	Path       string
	Bytes      int64
	Width      int
	Height     int
	Diagnostic bool
}

// Result is everything a run produced. Err is nil when every step passed.
type Result struct {
	RunID      string
	Scenario   string
	BaseURL    string
	Device     string
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepResult
	Artifacts  []Artifact
	Err        error
}

// Passed reports whether the run reached its last step without failure.
func (r *Result) Passed() bool {
	return r.Err == nil
}

// Duration is the wall time from launch to release.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Artifact returns the artifact with the given file name.
func (r *Result) Artifact(name string) (Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// inspectArtifact reads back a written screenshot and records its size and
// PNG dimensions.
func inspectArtifact(name, path string) (Artifact, error) {
	a := Artifact{Name: name, Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return a, fmt.Errorf("stat %s: %w", path, err)
	}
	a.Bytes = info.Size()
	if a.Bytes == 0 {
		return a, fmt.Errorf("%s: %w", path, ErrEmptyArtifact)
	}

	f, err := os.Open(path)
	if err != nil {
		return a, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return a, fmt.Errorf("decode %s: %w", path, err)
	}
	a.Width, a.Height = cfg.Width, cfg.Height
	return a, nil
}
