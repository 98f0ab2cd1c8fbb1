package metrics

import (
	"math"

	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/physics"
)

type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(s dynamo.Sample) {
	p.peak = math.Max(p.peak, s.V)
}

func (p *PeakSpeed) Value() float64 { return p.peak }

func (p *PeakSpeed) Reset() { p.peak = 0 }

// PeakThrust tracks the largest jet thrust rho*s*v^2 seen during a run.
type PeakThrust struct {
	name   string
	outlet float64
	rho    float64
	peak   float64
}

func NewPeakThrust(tank physics.Tank, c physics.Constants) *PeakThrust {
	return &PeakThrust{
		name:   "peak_thrust",
		outlet: tank.SOutlet(),
		rho:    c.Rho,
	}
}

func (p *PeakThrust) Name() string { return p.name }

func (p *PeakThrust) Observe(s dynamo.Sample) {
	p.peak = math.Max(p.peak, p.rho*p.outlet*s.V*s.V)
}

func (p *PeakThrust) Value() float64 { return p.peak }

func (p *PeakThrust) Reset() { p.peak = 0 }

// Defaults returns the metrics attached to every CLI run.
func Defaults(tank physics.Tank, c physics.Constants) []dynamo.Metric {
	return []dynamo.Metric{
		NewPeakSpeed(),
		NewPeakThrust(tank, c),
		NewPressureDrop(c.Pa),
	}
}
