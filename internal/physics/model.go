package physics

import (
	"math"

	"github.com/san-kum/tankdrain/internal/dynamo"
)

// Model evaluates the instantaneous physics of one tank and one set of
// initial conditions. It holds no simulation state and is safe to share.
type Model struct {
	tank   Tank
	ic     InitialConditions
	law    PressureModel
	consts Constants
	beta   float64
}

func NewModel(tank Tank, ic InitialConditions, law PressureModel, consts Constants) (*Model, error) {
	if err := tank.Validate(); err != nil {
		return nil, err
	}
	if err := consts.validate(); err != nil {
		return nil, err
	}
	if law == nil {
		return nil, &dynamo.ConfigurationError{Field: "pressure_model", Value: math.NaN(), Reason: "must be set"}
	}
	if !(ic.P0 > consts.Pa) {
		return nil, &dynamo.ConfigurationError{Field: "p0", Value: ic.P0, Reason: "must exceed atmospheric pressure for any outflow"}
	}
	if !(ic.Z0 > 0) || !(ic.Z0 < tank.H) {
		return nil, &dynamo.ConfigurationError{Field: "z0", Value: ic.Z0, Reason: "must lie strictly between 0 and the tank height"}
	}

	return &Model{
		tank:   tank,
		ic:     ic,
		law:    law,
		consts: consts,
		beta:   law.Beta(tank),
	}, nil
}

func (m *Model) Tank() Tank                 { return m.tank }
func (m *Model) Initial() InitialConditions { return m.ic }
func (m *Model) Constants() Constants       { return m.consts }
func (m *Model) Beta() float64              { return m.beta }
func (m *Model) StateDim() int              { return 1 }
func (m *Model) InitialState() dynamo.State { return dynamo.State{m.ic.Z0} }

func (m *Model) Pressure(z float64) (float64, error) {
	return m.law.Pressure(z, m.tank, m.ic, m.consts)
}

func (m *Model) Radicand(z float64) (float64, error) {
	p, err := m.Pressure(z)
	if err != nil {
		return 0, err
	}
	return m.law.Radicand(z, p, m.consts), nil
}

// OutflowVelocity is dz/dt at height z. It is never positive.
func (m *Model) OutflowVelocity(z float64) (float64, error) {
	rad, err := m.Radicand(z)
	if err != nil {
		return 0, err
	}
	if rad < 0 {
		return 0, &dynamo.DomainError{Quantity: "outflow driving term", Z: z, Value: rad}
	}
	return m.law.Rate(rad, m.beta, m.consts), nil
}

// EjectionSpeed converts the level rate into the jet exit speed by continuity.
func (m *Model) EjectionSpeed(z float64) (float64, error) {
	f, err := m.OutflowVelocity(z)
	if err != nil {
		return 0, err
	}
	return m.jetSpeed(f), nil
}

func (m *Model) jetSpeed(f float64) float64 {
	return math.Abs(f) * m.tank.AreaRatio()
}

// Sample evaluates speed and pressure at height z, time t.
func (m *Model) Sample(z, t float64) (dynamo.Sample, error) {
	p, err := m.Pressure(z)
	if err != nil {
		return dynamo.Sample{}, err
	}
	f, err := m.OutflowVelocity(z)
	if err != nil {
		return dynamo.Sample{}, err
	}
	return dynamo.Sample{T: t, Z: z, V: m.jetSpeed(f), P: p}, nil
}

// StoppingReason returns the first stop condition that holds at (z, f, t).
// f is NaN when the outflow is undefined at z.
func (m *Model) StoppingReason(z, f, t float64, cfg dynamo.Config) dynamo.Stop {
	if z < 0 {
		return dynamo.Stop{Reason: dynamo.BottomReached, Value: z}
	}
	if math.Abs(f) < cfg.FlowThreshold {
		return dynamo.Stop{Reason: dynamo.FlowStalled, Value: math.Abs(f)}
	}
	rad, err := m.Radicand(z)
	if err != nil || rad < 0 || math.IsNaN(f) {
		return dynamo.Stop{Reason: dynamo.UnphysicalState, Value: rad}
	}
	if cfg.FinalTime > 0 && t > cfg.FinalTime {
		return dynamo.Stop{Reason: dynamo.TimeLimitReached, Value: t}
	}
	return dynamo.Stop{Reason: dynamo.Continue}
}

func (m *Model) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	f, err := m.OutflowVelocity(x[0])
	if err != nil {
		return nil, err
	}
	return dynamo.State{f}, nil
}

// CharacteristicDt is factor * H / |F(z0)|, the step size scale at which the
// level moves a fraction factor of the tank height per step.
func (m *Model) CharacteristicDt(factor float64) (float64, error) {
	if !(factor > 0) {
		return 0, &dynamo.ConfigurationError{Field: "dt_factor", Value: factor, Reason: "must be positive"}
	}
	f0, err := m.OutflowVelocity(m.ic.Z0)
	if err != nil {
		return 0, err
	}
	if f0 == 0 {
		return 0, &dynamo.ConfigurationError{Field: "z0", Value: m.ic.Z0, Reason: "no outflow at the initial level"}
	}
	return factor * m.tank.H / math.Abs(f0), nil
}

func (m *Model) GetParams() map[string]float64 {
	return map[string]float64{
		"height":          m.tank.H,
		"diameter":        m.tank.D,
		"outlet_diameter": m.tank.Outlet,
		"p0":              m.ic.P0,
		"z0":              m.ic.Z0,
		"beta":            m.beta,
	}
}
