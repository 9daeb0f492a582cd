package enso

import (
	"math"

	"goenso/domain/core"
	"goenso/domain/field"
)

// ComposeIndex rotates the leading two corrected principal components into
// the E and C index:
//
//	E = (PC0 - PC1) / √2
//	C = (PC0 + PC1) / √2
//
// The input is a 2-D (time, mode) field with two modes; the output series
// are named E_index and C_index.
func ComposeIndex(pcs *field.Field) (Index, error) {
	if err := pcs.RequireDims("time", "mode"); err != nil {
		return Index{}, err
	}
	if pcs.NDim() != 2 {
		return Index{}, core.NewInvalidArgumentErrorf("principal components must be 2-D (time, mode), got %d axes", pcs.NDim())
	}
	mi := pcs.AxisIndex("mode")
	ti := pcs.AxisIndex("time")
	if pcs.Shape()[mi] < 2 {
		return Index{}, core.NewInvalidArgumentErrorf("index composition needs 2 modes, got %d", pcs.Shape()[mi])
	}

	times := pcs.Times()
	n := len(times)
	e := make([]float64, n)
	c := make([]float64, n)
	for t := 0; t < n; t++ {
		var p0, p1 float64
		if ti == 0 {
			p0, p1 = pcs.At(t, 0), pcs.At(t, 1)
		} else {
			p0, p1 = pcs.At(0, t), pcs.At(1, t)
		}
		e[t] = (p0 - p1) / math.Sqrt2
		c[t] = (p0 + p1) / math.Sqrt2
	}

	ef, err := field.New("E_index", []field.Axis{field.TimeAxis(times)}, e)
	if err != nil {
		return Index{}, err
	}
	cf, err := field.New("C_index", []field.Axis{field.TimeAxis(times)}, c)
	if err != nil {
		return Index{}, err
	}
	return Index{E: ef, C: cf}, nil
}
