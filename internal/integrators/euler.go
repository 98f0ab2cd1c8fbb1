package integrators

import "github.com/san-kum/tankdrain/internal/dynamo"

// Euler is the explicit forward Euler scheme: the derivative is taken at the
// start of the interval.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, dynamo.State, error) {
	dx, err := dyn.Derive(x, t)
	if err != nil {
		return nil, nil, err
	}
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result, dx, nil
}
