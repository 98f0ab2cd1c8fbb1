// Package physics provides the instantaneous physics of a pressurized water
// tank draining through an ejection tube.
//
// A [Model] binds a [Tank], its [InitialConditions], the [Constants] and a
// [PressureModel], and evaluates as pure functions of the water height z:
//
//   - [Model.Pressure]: gas cushion pressure
//   - [Model.OutflowVelocity]: signed rate of change of the level (F)
//   - [Model.EjectionSpeed]: jet exit speed, |F| S/s
//   - [Model.StoppingReason]: first stop condition that holds
//
// Two gas laws are available: [Isothermal] (Bernoulli outflow,
// beta = (S/s)^2 - 1) and [Adiabatic] (pressure driven outflow, beta = s/S).
// The beta definitions differ on purpose; each law brings its own.
//
// Model also implements [dynamo.System] for the one dimensional state {z}.
package physics
