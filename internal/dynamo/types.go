package dynamo

import (
	"fmt"
	"math"
	"slices"
)

type State []float64

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is an ODE dX/dt = f(X, t) whose right-hand side may be undefined
// for some states.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

type Integrator interface {
	// Step advances x by dt and also returns the derivative it used.
	Step(dyn System, x State, t, dt float64) (next State, dx State, err error)
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

const (
	DefaultFlowThreshold = 1e-3
	DefaultMaxSteps      = 50_000_000
)

type Config struct {
	Dt            float64
	FinalTime     float64 // 0 disables the time limit
	FlowThreshold float64
	MaxSteps      int
}

func DefaultConfig() Config {
	return Config{
		Dt:            1e-3,
		FlowThreshold: DefaultFlowThreshold,
		MaxSteps:      DefaultMaxSteps,
	}
}

func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return &ConfigurationError{Field: "dt", Value: c.Dt, Reason: "must be positive and finite"}
	}
	if c.FinalTime < 0 {
		return &ConfigurationError{Field: "final_time", Value: c.FinalTime, Reason: "must not be negative"}
	}
	if c.FlowThreshold < 0 {
		return &ConfigurationError{Field: "flow_threshold", Value: c.FlowThreshold, Reason: "must not be negative"}
	}
	if c.MaxSteps < 0 {
		return &ConfigurationError{Field: "max_steps", Value: float64(c.MaxSteps), Reason: "must not be negative"}
	}
	return nil
}

type StopReason int

const (
	Continue StopReason = iota
	BottomReached
	FlowStalled
	UnphysicalState
	TimeLimitReached
)

func (r StopReason) String() string {
	switch r {
	case Continue:
		return "continue"
	case BottomReached:
		return "bottom_reached"
	case FlowStalled:
		return "flow_stalled"
	case UnphysicalState:
		return "unphysical_state"
	case TimeLimitReached:
		return "time_limit_reached"
	default:
		return fmt.Sprintf("stop_reason(%d)", int(r))
	}
}

// Stop is a reason tag plus the value that triggered it.
type Stop struct {
	Reason StopReason
	Value  float64
}

func (s Stop) Stopped() bool { return s.Reason != Continue }

func (s Stop) String() string {
	switch s.Reason {
	case BottomReached:
		return "water level hit the bottom"
	case FlowStalled:
		return fmt.Sprintf("flow reached slow speed: %g m/s", s.Value)
	case UnphysicalState:
		return "hydrostatic equilibrium went wrong, reduce dt"
	case TimeLimitReached:
		return fmt.Sprintf("time limit reached at t=%g s", s.Value)
	default:
		return "running"
	}
}

// Sample is the simulation state at one recorded instant.
type Sample struct {
	T float64 // s
	Z float64 // water height, m
	V float64 // ejection speed, m/s
	P float64 // tank pressure, Pa
}

// Trajectory is the time-ordered history of a finished run. Index i of every
// slice corresponds to t = i*Dt. Treat it as read-only.
type Trajectory struct {
	Times     []float64
	Heights   []float64
	Speeds    []float64
	Pressures []float64
	Dt        float64
	Stop      Stop
	Metrics   map[string]float64
}

func NewTrajectory(dt float64, capacity int) *Trajectory {
	return &Trajectory{
		Times:     make([]float64, 0, capacity),
		Heights:   make([]float64, 0, capacity),
		Speeds:    make([]float64, 0, capacity),
		Pressures: make([]float64, 0, capacity),
		Dt:        dt,
		Metrics:   make(map[string]float64),
	}
}

func (tr *Trajectory) Append(s Sample) {
	tr.Times = append(tr.Times, s.T)
	tr.Heights = append(tr.Heights, s.Z)
	tr.Speeds = append(tr.Speeds, s.V)
	tr.Pressures = append(tr.Pressures, s.P)
}

// Freeze clips every history so later appends by a consumer reallocate
// instead of writing into shared backing arrays.
func (tr *Trajectory) Freeze() {
	tr.Times = slices.Clip(tr.Times)
	tr.Heights = slices.Clip(tr.Heights)
	tr.Speeds = slices.Clip(tr.Speeds)
	tr.Pressures = slices.Clip(tr.Pressures)
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) At(i int) Sample {
	return Sample{T: tr.Times[i], Z: tr.Heights[i], V: tr.Speeds[i], P: tr.Pressures[i]}
}

func (tr *Trajectory) Last() (Sample, bool) {
	if tr.Len() == 0 {
		return Sample{}, false
	}
	return tr.At(tr.Len() - 1), true
}

// Duration is the time of the last retained sample.
func (tr *Trajectory) Duration() float64 {
	if s, ok := tr.Last(); ok {
		return s.T
	}
	return 0
}

// Validate checks that the histories are non-empty and of equal length.
func (tr *Trajectory) Validate(op string) error {
	if tr == nil || len(tr.Times) == 0 {
		return &InvalidInputError{Op: op, Reason: "empty trajectory"}
	}
	n := len(tr.Times)
	if len(tr.Heights) != n || len(tr.Speeds) != n || len(tr.Pressures) != n {
		return &InvalidInputError{
			Op: op,
			Reason: fmt.Sprintf("history lengths differ: t=%d z=%d v=%d p=%d",
				n, len(tr.Heights), len(tr.Speeds), len(tr.Pressures)),
		}
	}
	return nil
}
