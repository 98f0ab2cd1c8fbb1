package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates an invalid tank geometry, initial condition
	// or run configuration. It is raised before any stepping happens.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrDomain indicates a physical quantity evaluated outside its domain.
	ErrDomain = errors.New("dynamo: evaluation outside physical domain")

	// ErrInvalidInput indicates malformed input to a trajectory transform.
	ErrInvalidInput = errors.New("dynamo: invalid input")

	// ErrStepLimit indicates the run exceeded MaxSteps without stopping.
	ErrStepLimit = errors.New("dynamo: step limit exceeded")
)

// ConfigurationError describes which parameter was rejected.
type ConfigurationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s=%g: %s", ErrConfiguration, e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// DomainError reports the quantity that could not be evaluated at height Z.
type DomainError struct {
	Quantity string
	Z        float64
	Value    float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%v: %s at z=%g (got %g)", ErrDomain, e.Quantity, e.Z, e.Value)
}

func (e *DomainError) Unwrap() error { return ErrDomain }

type InvalidInputError struct {
	Op     string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidInput, e.Op, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Z       float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f, z=%.6f): %v", e.Step, e.Time, e.Z, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
