package verify

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is wrapped by drivers when an element does not reach the expected state in time.
	ErrTimeout = errors.New("timed out")
	// ErrEmptyArtifact is returned when a screenshot was written with no content.
	ErrEmptyArtifact = errors.New("empty artifact")
)

// StepError reports the scenario step a run failed at.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the name of the step err originated from, or "" if
// err is not a step failure.
func FailedStep(err error) string {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}
