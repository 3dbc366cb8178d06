package dynamo

import "errors"

// Domain errors for ensemble and history operations.
var (
	// ErrInvalidCapacity indicates a tail capacity below one.
	ErrInvalidCapacity = errors.New("dynamo: tail capacity must be at least 1")

	// ErrEmptyEnsemble indicates an operation that needs at least one trajectory.
	ErrEmptyEnsemble = errors.New("dynamo: ensemble has no trajectories")

	// ErrIndexOutOfRange indicates a trajectory index outside the ensemble.
	ErrIndexOutOfRange = errors.New("dynamo: trajectory index out of range")

	// ErrUnknownParam indicates a parameter name SetParam does not recognise.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)
