// Package dynamo provides the simulation primitives shared by the bicycle
// model, the integrators and the simulation driver.
//
//   - [State]: vector representing system state
//   - [System]: first-order ODE right-hand side dx/dt = f(x, u, t)
//   - [Integrator], [AdaptiveIntegrator]: one-step numerical methods
//   - [Controller]: feedback producing the control input u
//   - [Metric], [Observer]: read-only consumers of the sampled trajectory
//
// A System may reject a state it cannot evaluate, for instance a
// configuration at which its constraint elimination is singular. That error
// is returned from Derive and propagated unchanged by the integrators.
//
// # Example
//
//	sys, _ := eom.Generate(model)
//	s := sim.New(sys, integrators.NewRK45(), controllers.NewNone(3))
//	result, _ := s.Run(ctx, x0, cfg)
package dynamo
