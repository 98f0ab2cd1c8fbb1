package sim

import (
	"errors"
	"math"

	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/integrators"
	"github.com/san-kum/tankdrain/internal/physics"
)

const (
	defaultCapacity = 1024
	maxCapacityHint = 1 << 20
)

// Simulator drives a physics.Model through fixed-step explicit Euler until a
// stopping condition fires. A Simulator owns the buffers of the run in
// progress and must not be shared between goroutines; build one per run.
type Simulator struct {
	model      *physics.Model
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
}

func New(model *physics.Model, integrator dynamo.Integrator) *Simulator {
	if integrator == nil {
		integrator = integrators.NewEuler()
	}
	return &Simulator{
		model:      model,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric) { s.metrics = append(s.metrics, m) }

// Run integrates from the model's initial level. Stop conditions are checked
// on the post-step state; a step that lands below the bottom or in an
// unphysical region is discarded, so every retained sample is physical.
// Domain errors met while stepping end the run with UnphysicalState instead
// of being returned.
func (s *Simulator) Run(cfg dynamo.Config) (*dynamo.Trajectory, error) {
	if s.model == nil {
		return nil, &dynamo.ConfigurationError{Field: "model", Value: math.NaN(), Reason: "must be set"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxSteps := cfg.MaxSteps
	if maxSteps == 0 {
		maxSteps = dynamo.DefaultMaxSteps
	}

	traj := dynamo.NewTrajectory(cfg.Dt, capacityHint(cfg))
	for _, m := range s.metrics {
		m.Reset()
	}

	x := s.model.InitialState()
	t := 0.0

	stop := s.model.StoppingReason(x[0], s.rate(x, t), t, cfg)
	first, err := s.model.Sample(x[0], t)
	if err != nil {
		stop = dynamo.Stop{Reason: dynamo.UnphysicalState, Value: math.NaN()}
	} else {
		s.record(traj, first)
	}

	for step := 1; !stop.Stopped(); step++ {
		if step > maxSteps {
			s.finish(traj, stop)
			return traj, &dynamo.SimulationError{Step: step, Time: t, Z: x[0], Wrapped: dynamo.ErrStepLimit}
		}

		next, _, err := s.integrator.Step(s.model, x, t, cfg.Dt)
		if err != nil {
			if !errors.Is(err, dynamo.ErrDomain) {
				return nil, &dynamo.SimulationError{Step: step, Time: t, Z: x[0], Wrapped: err}
			}
			stop = dynamo.Stop{Reason: dynamo.UnphysicalState, Value: math.NaN()}
			break
		}
		tNext := float64(step) * cfg.Dt
		if !next.IsValid() {
			stop = dynamo.Stop{Reason: dynamo.UnphysicalState, Value: math.NaN()}
			break
		}

		stop = s.model.StoppingReason(next[0], s.rate(next, tNext), tNext, cfg)
		if stop.Reason == dynamo.BottomReached || stop.Reason == dynamo.UnphysicalState {
			break
		}

		sample, err := s.model.Sample(next[0], tNext)
		if err != nil {
			stop = dynamo.Stop{Reason: dynamo.UnphysicalState, Value: math.NaN()}
			break
		}
		s.record(traj, sample)
		x, t = next, tNext
	}

	s.finish(traj, stop)
	return traj, nil
}

// rate is F at x, or NaN where F is undefined.
func (s *Simulator) rate(x dynamo.State, t float64) float64 {
	dx, err := s.model.Derive(x, t)
	if err != nil {
		return math.NaN()
	}
	return dx[0]
}

func (s *Simulator) record(traj *dynamo.Trajectory, sample dynamo.Sample) {
	traj.Append(sample)
	for _, m := range s.metrics {
		m.Observe(sample)
	}
}

func (s *Simulator) finish(traj *dynamo.Trajectory, stop dynamo.Stop) {
	traj.Stop = stop
	for _, m := range s.metrics {
		traj.Metrics[m.Name()] = m.Value()
	}
	traj.Freeze()
}

func capacityHint(cfg dynamo.Config) int {
	if cfg.FinalTime <= 0 {
		return defaultCapacity
	}
	n := cfg.FinalTime/cfg.Dt + 2
	if n > maxCapacityHint {
		return maxCapacityHint
	}
	return int(n)
}
