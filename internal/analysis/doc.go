// Package analysis derives mechanical quantities from a finished trajectory.
//
// Every function is a pure transform over a [dynamo.Trajectory]:
//
//   - [MidpointIntegral]: averaged-interval quadrature of y dx
//   - [Thrust], [ThrustCurve]: jet momentum flux rho s v^2
//   - [Impulse], [NetImpulse]: time integral of (net) thrust
//   - [KineticEnergyDelivered]: time integral of thrust * v
//   - [PressureWork]: integral of p dV over the gas cushion
//
// Empty or ragged trajectories are rejected with dynamo.ErrInvalidInput.
//
//	imp, err := analysis.Impulse(traj, model.Tank(), model.Constants())
package analysis
