// Package field implements the labeled N-dimensional array the index engine
// operates on: a float64 data block with named, coordinate-valued axes.
// Every transform returns a new Field; inputs are never mutated in place.
// NaN marks missing cells (land mask in SST grids).
package field

import (
	"fmt"
	"strings"
	"time"

	"goenso/domain/core"
)

// Field is a labeled N-dimensional array (row-major backing slice).
type Field struct {
	name string
	axes []Axis
	data []float64
}

// New creates a field from ordered axes and a row-major data slice. The data
// length must equal the product of the axis lengths.
func New(name string, axes []Axis, data []float64) (*Field, error) {
	size := 1
	for _, a := range axes {
		size *= a.Len()
	}
	if size != len(data) {
		return nil, core.NewShapeMismatchError(
			fmt.Sprintf("%d values for axes %v", size, dimNames(axes)),
			fmt.Sprintf("%d values", len(data)),
		)
	}
	seen := map[string]bool{}
	for _, a := range axes {
		key := strings.ToLower(a.Name)
		if a.Name == "" {
			return nil, core.NewInvalidArgumentError("axis name is empty")
		}
		if seen[key] {
			return nil, core.NewInvalidArgumentErrorf("duplicate axis %q", a.Name)
		}
		seen[key] = true
	}
	return &Field{name: name, axes: axes, data: data}, nil
}

// MustNew is New for hand-built literals in tests and fixtures; it panics on
// malformed shapes.
func MustNew(name string, axes []Axis, data []float64) *Field {
	f, err := New(name, axes, data)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the field's variable name ("sst", "E_index", ...).
func (f *Field) Name() string { return f.name }

// WithName returns a shallow relabeling of the field.
func (f *Field) WithName(name string) *Field {
	return &Field{name: name, axes: f.axes, data: f.data}
}

// NDim returns the number of axes.
func (f *Field) NDim() int { return len(f.axes) }

// Shape returns the per-axis lengths in axis order.
func (f *Field) Shape() []int {
	shape := make([]int, len(f.axes))
	for i, a := range f.axes {
		shape[i] = a.Len()
	}
	return shape
}

// Size returns the total number of cells.
func (f *Field) Size() int { return len(f.data) }

// Dims returns the axis names in order.
func (f *Field) Dims() []string { return dimNames(f.axes) }

// Axis returns the i-th axis.
func (f *Field) Axis(i int) Axis { return f.axes[i] }

// AxisIndex returns the position of the named axis, matching
// case-insensitively, or -1 when absent.
func (f *Field) AxisIndex(name string) int {
	for i, a := range f.axes {
		if strings.EqualFold(a.Name, name) {
			return i
		}
	}
	return -1
}

// HasDim reports whether the named axis exists (case-insensitive).
func (f *Field) HasDim(name string) bool {
	return f.AxisIndex(name) >= 0
}

// Coords returns the numeric coordinates of the named axis, or nil when the
// axis is absent or time-valued.
func (f *Field) Coords(dim string) []float64 {
	i := f.AxisIndex(dim)
	if i < 0 {
		return nil
	}
	return f.axes[i].Coords
}

// Times returns the calendar coordinates of the time axis, or nil when the
// field has none.
func (f *Field) Times() []time.Time {
	for _, a := range f.axes {
		if a.IsTime() {
			return a.Times
		}
	}
	return nil
}

// Values returns the row-major backing slice. The slice is shared with the
// field; callers must not modify it.
func (f *Field) Values() []float64 { return f.data }

// At returns the cell at the given per-axis indices.
func (f *Field) At(idx ...int) float64 {
	if len(idx) != len(f.axes) {
		panic(fmt.Sprintf("field: At called with %d indices on %d-d field", len(idx), len(f.axes)))
	}
	flat := 0
	for d, s := range f.Strides() {
		flat += idx[d] * s
	}
	return f.data[flat]
}

// Strides returns the row-major stride per axis.
func (f *Field) Strides() []int {
	shape := make([]int, len(f.axes))
	for i, a := range f.axes {
		shape[i] = a.Len()
	}
	return StridesOf(shape)
}

// StridesOf returns the row-major strides for a shape.
func StridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	return strides
}

// Copy deep-copies the field, including axes.
func (f *Field) Copy() *Field {
	axes := make([]Axis, len(f.axes))
	for i, a := range f.axes {
		axes[i] = a.clone()
	}
	data := make([]float64, len(f.data))
	copy(data, f.data)
	return &Field{name: f.name, axes: axes, data: data}
}

// RequireDims confirms the field carries every named axis, matching
// case-insensitively, and fails with a MissingDimension error naming the
// first absent one. It has no side effects.
func (f *Field) RequireDims(dims ...string) error {
	for _, dim := range dims {
		if !f.HasDim(dim) {
			return core.NewMissingDimensionError(dim)
		}
	}
	return nil
}

// RenameDim returns a field with one axis relabeled. Coordinate values are
// untouched, so renaming "time" hides the calendar axis from operations that
// look it up by name.
func (f *Field) RenameDim(old, new string) (*Field, error) {
	i := f.AxisIndex(old)
	if i < 0 {
		return nil, core.NewMissingDimensionError(old)
	}
	axes := make([]Axis, len(f.axes))
	copy(axes, f.axes)
	renamed := axes[i]
	renamed.Name = new
	axes[i] = renamed
	return &Field{name: f.name, axes: axes, data: f.data}, nil
}

func dimNames(axes []Axis) []string {
	names := make([]string, len(axes))
	for i, a := range axes {
		names[i] = a.Name
	}
	return names
}
