package metrics

import "github.com/san-kum/tankdrain/internal/dynamo"

// PressureDrop is the fraction of the initial gauge pressure released so far.
type PressureDrop struct {
	name    string
	pa      float64
	initial float64
	current float64
	samples int
}

func NewPressureDrop(pa float64) *PressureDrop {
	return &PressureDrop{
		name: "pressure_drop",
		pa:   pa,
	}
}

func (d *PressureDrop) Name() string { return d.name }

func (d *PressureDrop) Observe(s dynamo.Sample) {
	if d.samples == 0 {
		d.initial = s.P
	}
	d.current = s.P
	d.samples++
}

func (d *PressureDrop) Value() float64 {
	gauge := d.initial - d.pa
	if d.samples == 0 || gauge <= 0 {
		return 0
	}
	return (d.initial - d.current) / gauge
}

func (d *PressureDrop) Reset() {
	d.initial = 0
	d.current = 0
	d.samples = 0
}

