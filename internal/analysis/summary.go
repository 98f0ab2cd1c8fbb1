package analysis

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/physics"
)

type Summary struct {
	Samples       int
	Duration      float64
	FinalLevel    float64
	FinalPressure float64
	PeakSpeed     float64
	PeakThrust    float64
	MeanThrust    float64
	Impulse       float64
	NetImpulse    float64
	KineticEnergy float64
	PressureWork  float64
	Stop          dynamo.Stop
}

func Summarize(traj *dynamo.Trajectory, tank physics.Tank, c physics.Constants) (Summary, error) {
	if err := traj.Validate("summary"); err != nil {
		return Summary{}, err
	}
	last, _ := traj.Last()

	s := Summary{
		Samples:       traj.Len(),
		Duration:      traj.Duration(),
		FinalLevel:    last.Z,
		FinalPressure: last.P,
		PeakSpeed:     floats.Max(traj.Speeds),
		Stop:          traj.Stop,
	}

	var err error
	if s.Impulse, err = Impulse(traj, tank, c); err != nil {
		return Summary{}, err
	}
	if s.NetImpulse, err = NetImpulse(traj, tank, c); err != nil {
		return Summary{}, err
	}
	if s.KineticEnergy, err = KineticEnergyDelivered(traj, tank, c); err != nil {
		return Summary{}, err
	}
	if s.PressureWork, err = PressureWork(traj, tank); err != nil {
		return Summary{}, err
	}
	if s.PeakThrust, err = PeakThrust(traj, tank, c); err != nil {
		return Summary{}, err
	}
	if s.Duration > 0 {
		s.MeanThrust = s.Impulse / s.Duration
	}
	return s, nil
}
