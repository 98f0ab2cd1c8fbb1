// Package dynamo provides the primitives shared by the tank drain simulator.
//
// The package defines the vocabulary passed between the physics model, the
// integrator and the post-processing code:
//
//   - [State]: state vector of an ODE system (here the water height)
//   - [System]: right-hand side dX/dt = f(X, t) that may fail outside its domain
//   - [Integrator]: single-step numerical scheme
//   - [Config]: step size and stopping thresholds for one run
//   - [Stop]: why a run ended, with its numeric payload
//   - [Trajectory]: the recorded history of a finished run
//
// # Errors
//
// Every error returned by the simulator unwraps to one of the sentinels in
// errors.go, so callers can branch with errors.Is:
//
//	traj, err := s.Run(cfg)
//	if errors.Is(err, dynamo.ErrConfiguration) {
//	    // fix the inputs, nothing was simulated
//	}
//
// # Thread Safety
//
// A Trajectory is handed over once a run finishes and is never written again
// by the simulator. Independent runs share no state and may run in parallel.
package dynamo
