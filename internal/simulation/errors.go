package simulation

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStep        = errors.New("simulation step must be strictly positive")
	ErrInvalidDuration    = errors.New("simulation duration must be greater or equal to the step")
	ErrInvalidInterval    = errors.New("live interval must be greater or equal to zero")
	ErrUnknownBoundary    = errors.New("unknown boundary")
	ErrUnknownComponent   = errors.New("unknown component")
	ErrInvalidTemperature = errors.New("temperature must be a finite value >= 0 K")
	ErrNilTopology        = errors.New("topology is required")
)

// StepError locates a failed step in the run.
type StepError struct {
	Step    int
	Elapsed float64
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%gs): %v", e.Step, e.Elapsed, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
