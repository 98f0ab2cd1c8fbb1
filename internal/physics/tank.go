package physics

import (
	"math"

	"github.com/san-kum/tankdrain/internal/dynamo"
)

// Bar is the pressure unit used for display and CLI input, independent of
// the atmospheric pressure in Constants.
const Bar = 1e5 // Pa

type Constants struct {
	G     float64 // gravity acceleration, m/s^2
	Rho   float64 // water density, kg/m^3
	Pa    float64 // atmospheric pressure, Pa
	Gamma float64 // adiabatic index of the gas cushion
}

func DefaultConstants() Constants {
	return Constants{
		G:     9.81,
		Rho:   1000,
		Pa:    1e5,
		Gamma: 1.4,
	}
}

func (c Constants) validate() error {
	switch {
	case !(c.G > 0):
		return &dynamo.ConfigurationError{Field: "g", Value: c.G, Reason: "must be positive"}
	case !(c.Rho > 0):
		return &dynamo.ConfigurationError{Field: "rho", Value: c.Rho, Reason: "must be positive"}
	case !(c.Pa > 0):
		return &dynamo.ConfigurationError{Field: "pa", Value: c.Pa, Reason: "must be positive"}
	case !(c.Gamma > 0):
		return &dynamo.ConfigurationError{Field: "gamma", Value: c.Gamma, Reason: "must be positive"}
	}
	return nil
}

// Tank is the vessel geometry. Lengths are in meters.
type Tank struct {
	H      float64 // height
	D      float64 // tank diameter
	Outlet float64 // ejection tube diameter
}

func NewTank(h, diameter, outlet float64) (Tank, error) {
	tk := Tank{H: h, D: diameter, Outlet: outlet}
	if err := tk.Validate(); err != nil {
		return Tank{}, err
	}
	return tk, nil
}

func (tk Tank) Validate() error {
	if !(tk.H > 0) {
		return &dynamo.ConfigurationError{Field: "height", Value: tk.H, Reason: "must be positive"}
	}
	if !(tk.Outlet > 0) {
		return &dynamo.ConfigurationError{Field: "outlet_diameter", Value: tk.Outlet, Reason: "must be positive"}
	}
	if !(tk.D > tk.Outlet) {
		return &dynamo.ConfigurationError{Field: "diameter", Value: tk.D, Reason: "must exceed the outlet diameter"}
	}
	return nil
}

// S is the cross-section of the tank.
func (tk Tank) S() float64 { return math.Pi * (0.5 * tk.D) * (0.5 * tk.D) }

// SOutlet is the cross-section of the ejection tube.
func (tk Tank) SOutlet() float64 { return math.Pi * (0.5 * tk.Outlet) * (0.5 * tk.Outlet) }

// AreaRatio is S/s.
func (tk Tank) AreaRatio() float64 { return tk.S() / tk.SOutlet() }

// AirVolume is the volume of the gas cushion above a water level z.
func (tk Tank) AirVolume(z float64) float64 { return (tk.H - z) * tk.S() }

type InitialConditions struct {
	P0 float64 // initial internal pressure, Pa
	Z0 float64 // initial water height, m
}
