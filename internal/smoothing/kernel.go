// Package smoothing applies 1-D kernel smoothing along a named axis of a
// labeled field, preserving the axis coordinates and field shape.
package smoothing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"goenso/domain/core"
)

// Kernel is a 1-D smoothing weight vector. Weights are rescaled to sum to 1
// at construction, whatever the input's original sum, so convolution
// preserves the mean level of the series.
type Kernel struct {
	weights []float64
}

// NewKernel builds a normalized kernel from raw weights. Empty input,
// non-finite weights, and weights summing to zero are rejected with
// InvalidArgument.
func NewKernel(weights []float64) (Kernel, error) {
	if len(weights) == 0 {
		return Kernel{}, core.NewInvalidArgumentError("smoothing kernel is empty")
	}
	for _, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return Kernel{}, core.NewInvalidArgumentError("smoothing kernel has non-finite weights")
		}
	}
	sum := floats.Sum(weights)
	if sum == 0 {
		return Kernel{}, core.NewInvalidArgumentError("smoothing kernel weights sum to zero")
	}
	norm := make([]float64, len(weights))
	copy(norm, weights)
	floats.Scale(1/sum, norm)
	return Kernel{weights: norm}, nil
}

// Default returns the canonical 1-2-1 binomial kernel.
func Default() Kernel {
	k, _ := NewKernel([]float64{1, 2, 1})
	return k
}

// Len returns the number of taps.
func (k Kernel) Len() int { return len(k.weights) }

// Weights returns a copy of the normalized weights.
func (k Kernel) Weights() []float64 {
	out := make([]float64, len(k.weights))
	copy(out, k.weights)
	return out
}

// IsZero reports whether the kernel was never constructed.
func (k Kernel) IsZero() bool { return k.weights == nil }

// String renders the normalized weights for logs and config fingerprints.
func (k Kernel) String() string {
	return fmt.Sprintf("%v", k.weights)
}
