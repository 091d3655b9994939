// Package report writes a machine-readable summary of a verification run
// next to its screenshots.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chat-archive/uiverify/internal/verify"
	"github.com/chat-archive/uiverify/internal/version"
)

// FileName is the report file written into the output directory.
const FileName = "report.yaml"

type Report struct {
	RunID      string       `yaml:"run_id"`
	Scenario   string       `yaml:"scenario"`
	BaseURL    string       `yaml:"base_url"`
	Device     string       `yaml:"device"`
	Outcome    string       `yaml:"outcome"`
	FailedStep string       `yaml:"failed_step,omitempty"`
	Error      string       `yaml:"error,omitempty"`
	StartedAt  time.Time    `yaml:"started_at"`
	FinishedAt time.Time    `yaml:"finished_at"`
	Duration   string       `yaml:"duration"`
	Steps      []Step       `yaml:"steps"`
	Artifacts  []Artifact   `yaml:"artifacts"`
	Build      version.Info `yaml:"build"`
}

type Step struct {
	Name     string `yaml:"name"`
	Action   string `yaml:"action"`
	Target   string `yaml:"target,omitempty"`
	Status   string `yaml:"status"`
	Duration string `yaml:"duration,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

type Artifact struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"`
	Bytes      int64  `yaml:"bytes"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Diagnostic bool   `yaml:"diagnostic,omitempty"`
}

// FromResult converts a run result into its report form.
func FromResult(r *verify.Result) *Report {
	rep := &Report{
		RunID:      r.RunID,
		Scenario:   r.Scenario,
		BaseURL:    r.BaseURL,
		Device:     r.Device,
		Outcome:    "passed",
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
		Duration:   r.Duration().Round(time.Millisecond).String(),
		Build:      version.GetInfo(),
	}
	if !r.Passed() {
		rep.Outcome = "failed"
		rep.FailedStep = verify.FailedStep(r.Err)
		rep.Error = r.Err.Error()
	}

	for _, s := range r.Steps {
		step := Step{Name: s.Name, Action: s.Action, Target: s.Target, Status: string(s.Status), Error: s.Error}
		if s.Status != verify.StepSkipped {
			step.Duration = s.Duration.Round(time.Millisecond).String()
		}
		rep.Steps = append(rep.Steps, step)
	}
	for _, a := range r.Artifacts {
		rep.Artifacts = append(rep.Artifacts, Artifact(a))
	}
	return rep
}

// Write stores the report for r as dir/report.yaml and returns its path.
func Write(dir string, r *verify.Result) (string, error) {
	data, err := yaml.Marshal(FromResult(r))
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Read loads a report written by Write.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	rep := &Report{}
	if err := yaml.Unmarshal(data, rep); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return rep, nil
}
