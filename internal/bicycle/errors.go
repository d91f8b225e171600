package bicycle

import "errors"

var (
	ErrMissingConstant = errors.New("bicycle: constant not bound")
	ErrUnknownConstant = errors.New("bicycle: unknown constant")
	ErrInvalidConstant = errors.New("bicycle: invalid constant")

	// ErrDegenerateConfiguration is returned for the exactly upright,
	// stationary, unsteered initial condition.
	ErrDegenerateConfiguration = errors.New("bicycle: degenerate initial configuration")

	// ErrConstraintRank is returned by Verify when the velocity constraints
	// do not determine the dependent speeds.
	ErrConstraintRank = errors.New("bicycle: constraint jacobian rank deficient")

	// ErrConstraintMismatch is returned by Verify when the vertical front
	// contact constraint is not the rate of the holonomic constraint.
	ErrConstraintMismatch = errors.New("bicycle: vertical contact constraint inconsistent with holonomic rate")
)
