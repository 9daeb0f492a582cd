package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrMissingDimension indicates a field lacks an axis an operation requires.
	ErrMissingDimension = errors.New("missing dimension")

	// ErrInvalidArgument indicates a caller-supplied parameter is unusable:
	// neither climatology nor base period given, an unknown zone key, or a
	// correction factor of the wrong shape.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDecomposition indicates the EOF decomposition is underdetermined or
	// the covariance estimate is degenerate.
	ErrDecomposition = errors.New("decomposition failed")

	// ErrShapeMismatch indicates two fields or series that must align do not.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Error constructors with context

func NewMissingDimensionError(dim string) error {
	return fmt.Errorf("%w: could not find %s dimension", ErrMissingDimension, dim)
}

func NewInvalidArgumentError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, reason)
}

func NewInvalidArgumentErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func NewDecompositionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDecomposition, reason)
}

func NewShapeMismatchError(want, got string) error {
	return fmt.Errorf("%w: want %s, got %s", ErrShapeMismatch, want, got)
}

// Error checking helpers

func IsMissingDimension(err error) bool {
	return errors.Is(err, ErrMissingDimension)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsDecompositionError(err error) bool {
	return errors.Is(err, ErrDecomposition)
}
