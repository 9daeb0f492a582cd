// Package regression produces the diagnostic by-products of the E/C index:
// spatial regression maps of the indices onto the anomaly field, and the
// quadratic nonlinearity coefficient of the PC1/PC2 relationship.
package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"goenso/domain/core"
)

// FitCurve is a dense evaluation of a fitted parabola, for plotting.
type FitCurve struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Alpha fits pc2 = a·pc1² + b·pc1 + c by least squares and returns the
// quadratic coefficient a, the standard nonlinearity measure of the E/C
// plane.
func Alpha(pc1, pc2 []float64) (float64, error) {
	coefs, err := polyfit(pc1, pc2)
	if err != nil {
		return 0, err
	}
	return coefs[2], nil
}

// AlphaFit is Alpha plus the fitted curve sampled over
// [min(pc1), max(pc1)] at step 0.1, for reproducible plots.
func AlphaFit(pc1, pc2 []float64) (float64, FitCurve, error) {
	coefs, err := polyfit(pc1, pc2)
	if err != nil {
		return 0, FitCurve{}, err
	}

	lo, hi := pc1[0], pc1[0]
	for _, v := range pc1 {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	x := arange(lo, hi+0.1, 0.1)
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = coefs[0] + coefs[1]*v + coefs[2]*v*v
	}
	return coefs[2], FitCurve{X: x, Y: y}, nil
}

// polyfit solves the degree-2 Vandermonde system for coefficients in
// ascending order (c0, c1, c2), minimum-norm when the system is rank
// deficient.
func polyfit(x, y []float64) ([3]float64, error) {
	var coefs [3]float64
	if len(x) != len(y) {
		return coefs, core.NewShapeMismatchError("series of equal length",
			"mismatched sample counts")
	}
	if len(x) < 3 {
		return coefs, core.NewInvalidArgumentErrorf("quadratic fit needs at least 3 samples, got %d", len(x))
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			return coefs, core.NewInvalidArgumentError("fit samples contain NaN")
		}
	}

	n := len(x)
	v := mat.NewDense(n, 3, nil)
	b := mat.NewDense(n, 1, nil)
	for i, xv := range x {
		v.Set(i, 0, 1)
		v.Set(i, 1, xv)
		v.Set(i, 2, xv*xv)
		b.Set(i, 0, y[i])
	}

	var svd mat.SVD
	if ok := svd.Factorize(v, mat.SVDThin); !ok {
		return coefs, core.NewDecompositionError("least-squares factorization did not converge")
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return coefs, nil
	}
	var sol mat.Dense
	svd.SolveTo(&sol, b, rank)
	for i := range coefs {
		coefs[i] = sol.At(i, 0)
	}
	return coefs, nil
}

// arange mirrors half-open range generation in float64: length
// ceil((stop-start)/step), values start + i*step.
func arange(start, stop, step float64) []float64 {
	n := int(math.Ceil((stop - start) / step))
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
