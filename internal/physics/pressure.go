package physics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/tankdrain/internal/dynamo"
)

// PressureModel is a gas law for the cushion above the water together with
// the outflow relation that matches it. The two laws carry different beta
// definitions, so beta and the driving term always come from the same model.
type PressureModel interface {
	Name() string
	Pressure(z float64, tk Tank, ic InitialConditions, c Constants) (float64, error)
	Beta(tk Tank) float64
	// Radicand is the driving term under the square root of the outflow law.
	Radicand(z, p float64, c Constants) float64
	Rate(radicand, beta float64, c Constants) float64
}

// compression returns (H - z0) / (H - z), failing once the water reaches the lid.
func compression(z float64, tk Tank, ic InitialConditions) (float64, error) {
	gap := tk.H - z
	if !(gap > 0) {
		return 0, &dynamo.DomainError{Quantity: "pressure", Z: z, Value: gap}
	}
	return (tk.H - ic.Z0) / gap, nil
}

// Isothermal is the incompressible Bernoulli model with an isothermal gas
// cushion: p = P0 (H-z0)/(H-z), beta = (S/s)^2 - 1.
type Isothermal struct{}

func (Isothermal) Name() string { return "isothermal" }

func (Isothermal) Pressure(z float64, tk Tank, ic InitialConditions, c Constants) (float64, error) {
	r, err := compression(z, tk, ic)
	if err != nil {
		return 0, err
	}
	return ic.P0 * r, nil
}

func (Isothermal) Beta(tk Tank) float64 {
	r := tk.AreaRatio()
	return r*r - 1
}

func (Isothermal) Radicand(z, p float64, c Constants) float64 {
	return c.G*z + (p-c.Pa)/c.Rho
}

func (Isothermal) Rate(radicand, beta float64, c Constants) float64 {
	return -math.Sqrt((2 / beta) * radicand)
}

// Adiabatic compresses the cushion adiabatically and drives the jet by the
// pressure difference alone: p = P0 ((H-z0)/(H-z))^gamma, beta = s/S.
type Adiabatic struct{}

func (Adiabatic) Name() string { return "adiabatic" }

func (Adiabatic) Pressure(z float64, tk Tank, ic InitialConditions, c Constants) (float64, error) {
	r, err := compression(z, tk, ic)
	if err != nil {
		return 0, err
	}
	return ic.P0 * math.Pow(r, c.Gamma), nil
}

func (Adiabatic) Beta(tk Tank) float64 {
	return tk.SOutlet() / tk.S()
}

func (Adiabatic) Radicand(z, p float64, c Constants) float64 {
	return p - c.Pa
}

func (Adiabatic) Rate(radicand, beta float64, c Constants) float64 {
	return -beta * math.Sqrt((2/c.Rho)*radicand)
}

var pressureModels = map[string]PressureModel{
	"isothermal": Isothermal{},
	"adiabatic":  Adiabatic{},
}

func PressureModelByName(name string) (PressureModel, error) {
	m, ok := pressureModels[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown pressure model: %s (available: %v)", name, PressureModelNames())
	}
	return m, nil
}

func PressureModelNames() []string {
	names := make([]string, 0, len(pressureModels))
	for name := range pressureModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
