package analysis

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/physics"
)

// Thrust is the momentum flux of the jet at speed v: rho * s * v^2.
func Thrust(v float64, tank physics.Tank, c physics.Constants) float64 {
	return c.Rho * tank.SOutlet() * v * v
}

func ThrustCurve(traj *dynamo.Trajectory, tank physics.Tank, c physics.Constants) ([]float64, error) {
	if err := traj.Validate("thrust curve"); err != nil {
		return nil, err
	}
	th := make([]float64, traj.Len())
	for i, v := range traj.Speeds {
		th[i] = Thrust(v, tank, c)
	}
	return th, nil
}

// Impulse is the total momentum delivered by the jet.
func Impulse(traj *dynamo.Trajectory, tank physics.Tank, c physics.Constants) (float64, error) {
	th, err := ThrustCurve(traj, tank, c)
	if err != nil {
		return 0, err
	}
	return MidpointIntegral(traj.Times, th)
}

// NetImpulse subtracts the weight of the water column still in the tank
// from the thrust before integrating.
func NetImpulse(traj *dynamo.Trajectory, tank physics.Tank, c physics.Constants) (float64, error) {
	th, err := ThrustCurve(traj, tank, c)
	if err != nil {
		return 0, err
	}
	force := make([]float64, len(th))
	for i, z := range traj.Heights {
		force[i] = th[i] - c.Rho*c.G*tank.S()*z
	}
	return MidpointIntegral(traj.Times, force)
}

// KineticEnergyDelivered integrates the jet power thrust*v over time.
func KineticEnergyDelivered(traj *dynamo.Trajectory, tank physics.Tank, c physics.Constants) (float64, error) {
	th, err := ThrustCurve(traj, tank, c)
	if err != nil {
		return 0, err
	}
	power := make([]float64, len(th))
	floats.MulTo(power, th, traj.Speeds)
	return MidpointIntegral(traj.Times, power)
}

// PressureWork is the work of the expanding gas on the water column,
// the integral of p dV with V the cushion volume.
func PressureWork(traj *dynamo.Trajectory, tank physics.Tank) (float64, error) {
	if err := traj.Validate("pressure work"); err != nil {
		return 0, err
	}
	vol := make([]float64, traj.Len())
	for i, z := range traj.Heights {
		vol[i] = tank.AirVolume(z)
	}
	return MidpointIntegral(vol, traj.Pressures)
}

func PeakThrust(traj *dynamo.Trajectory, tank physics.Tank, c physics.Constants) (float64, error) {
	th, err := ThrustCurve(traj, tank, c)
	if err != nil {
		return 0, err
	}
	return floats.Max(th), nil
}

// MeanThrust is the impulse spread over the burn time.
func MeanThrust(traj *dynamo.Trajectory, tank physics.Tank, c physics.Constants) (float64, error) {
	imp, err := Impulse(traj, tank, c)
	if err != nil {
		return 0, err
	}
	if d := traj.Duration(); d > 0 {
		return imp / d, nil
	}
	return 0, nil
}
