package field

import (
	"math"
	"sort"
	"time"

	"goenso/domain/core"
)

// Isel returns a new field keeping only the given positions along one axis,
// in the given order. It is the integer-indexing primitive the label-based
// selectors build on.
func (f *Field) Isel(dim string, indices []int) (*Field, error) {
	k := f.AxisIndex(dim)
	if k < 0 {
		return nil, core.NewMissingDimensionError(dim)
	}
	for _, ix := range indices {
		if ix < 0 || ix >= f.axes[k].Len() {
			return nil, core.NewInvalidArgumentErrorf("index %d out of range for axis %q (len %d)", ix, dim, f.axes[k].Len())
		}
	}

	axes := make([]Axis, len(f.axes))
	for i, a := range f.axes {
		if i == k {
			axes[i] = pickAxis(a, indices)
		} else {
			axes[i] = a
		}
	}

	outShape := make([]int, len(axes))
	outSize := 1
	for i, a := range axes {
		outShape[i] = a.Len()
		outSize *= a.Len()
	}

	inStrides := f.Strides()
	out := make([]float64, outSize)
	idx := make([]int, len(axes))
	for o := 0; o < outSize; o++ {
		flat := 0
		for d := range idx {
			c := idx[d]
			if d == k {
				c = indices[c]
			}
			flat += c * inStrides[d]
		}
		out[o] = f.data[flat]
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return &Field{name: f.name, axes: axes, data: out}, nil
}

// SelRange restricts a numeric axis to coordinates in [lo, hi], inclusive on
// both ends, keeping coordinate order. The axis must be sorted ascending;
// sort with SortBy first.
func (f *Field) SelRange(dim string, lo, hi float64) (*Field, error) {
	k := f.AxisIndex(dim)
	if k < 0 {
		return nil, core.NewMissingDimensionError(dim)
	}
	a := f.axes[k]
	if a.IsTime() {
		return nil, core.NewInvalidArgumentErrorf("axis %q is time-valued; use SelPeriod", dim)
	}
	if !sort.Float64sAreSorted(a.Coords) {
		return nil, core.NewInvalidArgumentErrorf("axis %q is not sorted ascending; sort with SortBy before range selection", dim)
	}
	indices := make([]int, 0, a.Len())
	for i, c := range a.Coords {
		if c >= lo && c <= hi {
			indices = append(indices, i)
		}
	}
	return f.Isel(dim, indices)
}

// SelPeriod restricts the time axis to samples inside the resolved range.
func (f *Field) SelPeriod(r core.TimeRange) (*Field, error) {
	k := -1
	for i, a := range f.axes {
		if a.IsTime() {
			k = i
			break
		}
	}
	if k < 0 {
		return nil, core.NewMissingDimensionError("time")
	}
	a := f.axes[k]
	indices := make([]int, 0, a.Len())
	for i, t := range a.Times {
		if r.Contains(t) {
			indices = append(indices, i)
		}
	}
	return f.Isel(a.Name, indices)
}

// SortBy reorders the named numeric axes ascending, one at a time. Axes that
// are already sorted are returned as-is.
func (f *Field) SortBy(dims ...string) (*Field, error) {
	out := f
	for _, dim := range dims {
		k := out.AxisIndex(dim)
		if k < 0 {
			return nil, core.NewMissingDimensionError(dim)
		}
		a := out.axes[k]
		if a.IsTime() {
			return nil, core.NewInvalidArgumentErrorf("axis %q is time-valued; SortBy handles numeric axes", dim)
		}
		if sort.Float64sAreSorted(a.Coords) {
			continue
		}
		order := make([]int, a.Len())
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return a.Coords[order[i]] < a.Coords[order[j]]
		})
		sorted, err := out.Isel(dim, order)
		if err != nil {
			return nil, err
		}
		out = sorted
	}
	return out, nil
}

// MeanOver reduces the named axes with a NaN-skipping arithmetic mean. Cells
// with no finite samples become NaN. Reducing every axis yields a
// zero-dimensional field; use Scalar to read it.
func (f *Field) MeanOver(dims ...string) (*Field, error) {
	reduce := make([]bool, len(f.axes))
	for _, dim := range dims {
		k := f.AxisIndex(dim)
		if k < 0 {
			return nil, core.NewMissingDimensionError(dim)
		}
		reduce[k] = true
	}

	var outAxes []Axis
	for i, a := range f.axes {
		if !reduce[i] {
			outAxes = append(outAxes, a)
		}
	}
	outSize := 1
	for _, a := range outAxes {
		outSize *= a.Len()
	}

	sums := make([]float64, outSize)
	counts := make([]int, outSize)

	shape := f.Shape()
	outStrides := stridesFor(outAxes)
	idx := make([]int, len(f.axes))
	for flat := 0; flat < len(f.data); flat++ {
		v := f.data[flat]
		if !math.IsNaN(v) {
			o, d := 0, 0
			for i := range idx {
				if !reduce[i] {
					o += idx[i] * outStrides[d]
					d++
				}
			}
			sums[o] += v
			counts[o]++
		}
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}

	out := make([]float64, outSize)
	for i := range out {
		if counts[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sums[i] / float64(counts[i])
	}
	return &Field{name: f.name, axes: outAxes, data: out}, nil
}

// Scalar reads a zero-dimensional field's single value.
func (f *Field) Scalar() (float64, error) {
	if len(f.data) != 1 {
		return 0, core.NewShapeMismatchError("scalar field", "multi-valued field")
	}
	return f.data[0], nil
}

func pickAxis(a Axis, indices []int) Axis {
	out := Axis{Name: a.Name}
	if a.IsTime() {
		out.Times = make([]time.Time, len(indices))
		for i, ix := range indices {
			out.Times[i] = a.Times[ix]
		}
		return out
	}
	out.Coords = make([]float64, len(indices))
	for i, ix := range indices {
		out.Coords[i] = a.Coords[ix]
	}
	return out
}

func stridesFor(axes []Axis) []int {
	strides := make([]int, len(axes))
	s := 1
	for i := len(axes) - 1; i >= 0; i-- {
		strides[i] = s
		s *= axes[i].Len()
	}
	return strides
}
