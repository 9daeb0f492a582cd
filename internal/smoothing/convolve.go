package smoothing

import (
	"goenso/domain/core"
	"goenso/domain/field"
)

// Convolve runs a 1-D linear convolution of the field against the kernel
// along the named axis, independently for every line along that axis.
// Boundaries are mirror-padded (reflect: d c b a | a b c d | d c b a) so the
// output keeps the input's length, shape, and coordinate labels. The kernel
// is applied as constructed; normalization happens in NewKernel, not here.
func Convolve(f *field.Field, k Kernel, axis string) (*field.Field, error) {
	if k.IsZero() {
		return nil, core.NewInvalidArgumentError("smoothing kernel is empty")
	}
	ax := f.AxisIndex(axis)
	if ax < 0 {
		return nil, core.NewMissingDimensionError(axis)
	}
	data := f.Values()
	if len(data) == 0 {
		return f.Copy(), nil
	}

	// Flipped taps and centering offset matching linear convolution with the
	// window centered on each sample (even-length kernels lean one tap
	// toward the start).
	taps := k.weights
	nk := len(taps)
	flipped := make([]float64, nk)
	for i, w := range taps {
		flipped[nk-1-i] = w
	}
	center := nk / 2
	adj := 0
	if nk%2 == 0 {
		adj = 1
	}

	shape := f.Shape()
	strides := f.Strides()
	length := shape[ax]
	step := strides[ax]

	redShape := make([]int, 0, len(shape)-1)
	redStrides := make([]int, 0, len(shape)-1)
	for d := range shape {
		if d != ax {
			redShape = append(redShape, shape[d])
			redStrides = append(redStrides, strides[d])
		}
	}

	out := make([]float64, len(data))
	idx := make([]int, len(redShape))
	lines := len(data) / length
	for ln := 0; ln < lines; ln++ {
		base := 0
		for d := range idx {
			base += idx[d] * redStrides[d]
		}
		for i := 0; i < length; i++ {
			var acc float64
			for j := 0; j < nk; j++ {
				acc += flipped[j] * data[base+reflect(i-center+j+adj, length)*step]
			}
			out[base+i*step] = acc
		}
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < redShape[d] {
				break
			}
			idx[d] = 0
		}
	}

	axes := make([]field.Axis, f.NDim())
	for i := range axes {
		axes[i] = f.Axis(i)
	}
	return field.New(f.Name(), axes, out)
}

// reflect folds an out-of-range index back into [0, n), mirroring at the
// edges so index -1 maps to 0 and index n maps to n-1.
func reflect(i, n int) int {
	if i >= 0 && i < n {
		return i
	}
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
