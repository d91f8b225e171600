// Package spatial provides 3-vectors and rotation matrices over dual numbers.
//
// Every component is a [dual.Number]. The real part carries the value and the
// dual part carries a directional derivative, so evaluating a kinematic
// expression with coordinates seeded as q + ε·q' yields both the expression
// and its time derivative in one pass:
//
//	angle := dual.Number{Real: q, Emag: qdot}
//	r := spatial.Rotation(spatial.Z, angle)
//	x := r.Col(0) // x.X.Emag == d/dt cos(q)
//
// All vectors are expressed in components of whatever basis the caller keeps
// them in; the kinematics package always uses the inertial basis.
package spatial
