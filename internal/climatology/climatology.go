// Package climatology computes monthly climatologies of time-indexed fields
// and the anomalies of a field against them.
package climatology

import (
	"fmt"
	"math"

	"goenso/domain/core"
	"goenso/domain/field"
)

// Compute averages a time-indexed field by calendar month over the given
// base period. The month axis (coordinates 1..12) takes the position of the
// time axis, so a (time, lat, lon) field yields a (month, lat, lon)
// climatology. The output always carries all 12 months; months with no
// samples in the base period hold NaN. A zero period means the full series.
func Compute(f *field.Field, period core.Period) (*field.Field, error) {
	if err := f.RequireDims("time"); err != nil {
		return nil, err
	}
	base := f
	if !period.IsZero() {
		r, err := period.Resolve()
		if err != nil {
			return nil, err
		}
		base, err = f.SelPeriod(r)
		if err != nil {
			return nil, err
		}
	}

	t := base.AxisIndex("time")
	if !base.Axis(t).IsTime() {
		return nil, core.NewInvalidArgumentError("time axis carries no calendar coordinates")
	}
	times := base.Axis(t).Times

	axes := make([]field.Axis, base.NDim())
	for i := range axes {
		if i == t {
			axes[i] = field.MonthAxis()
		} else {
			axes[i] = base.Axis(i)
		}
	}
	outShape := make([]int, len(axes))
	outSize := 1
	for i, a := range axes {
		outShape[i] = a.Len()
		outSize *= a.Len()
	}
	outStrides := field.StridesOf(outShape)

	sums := make([]float64, outSize)
	counts := make([]int, outSize)
	data := base.Values()
	shape := base.Shape()
	idx := make([]int, len(shape))
	for flat := range data {
		if v := data[flat]; !math.IsNaN(v) {
			o := 0
			for d := range idx {
				if d == t {
					o += (int(times[idx[t]].Month()) - 1) * outStrides[d]
				} else {
					o += idx[d] * outStrides[d]
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
	return field.New(base.Name(), axes, out)
}

// Anomaly subtracts the climatology value of each sample's calendar month,
// broadcasting over the remaining axes. The climatology comes from exactly
// one place: a precomputed clim, or a base period to compute one from; when
// both are absent the call fails with InvalidArgument. When both are given
// the precomputed climatology wins. A field with no time axis (for example
// one already grouped into months) fails with MissingDimension.
func Anomaly(f *field.Field, clim *field.Field, period core.Period) (*field.Field, error) {
	if err := f.RequireDims("time"); err != nil {
		return nil, err
	}
	if clim == nil {
		if period.IsZero() {
			return nil, core.NewInvalidArgumentError("anomaly needs a climatology or a base period to compute one from")
		}
		var err error
		clim, err = Compute(f, period)
		if err != nil {
			return nil, err
		}
	}
	if err := clim.RequireDims("month"); err != nil {
		return nil, err
	}

	t := f.AxisIndex("time")
	if !f.Axis(t).IsTime() {
		return nil, core.NewInvalidArgumentError("time axis carries no calendar coordinates")
	}
	times := f.Axis(t).Times

	monthPos := make(map[int]int, 12)
	for i, m := range clim.Coords("month") {
		monthPos[int(m)] = i
	}

	// Align every non-month climatology axis with a field axis by name.
	mIdx := clim.AxisIndex("month")
	align := make([]int, clim.NDim())
	for j := 0; j < clim.NDim(); j++ {
		if j == mIdx {
			align[j] = -1
			continue
		}
		name := clim.Axis(j).Name
		k := f.AxisIndex(name)
		if k < 0 {
			return nil, core.NewMissingDimensionError(name)
		}
		if f.Axis(k).Len() != clim.Axis(j).Len() {
			return nil, core.NewShapeMismatchError(
				fmt.Sprintf("axis %q of length %d", name, clim.Axis(j).Len()),
				fmt.Sprintf("length %d", f.Axis(k).Len()),
			)
		}
		align[j] = k
	}

	data := f.Values()
	climData := clim.Values()
	climStrides := clim.Strides()
	shape := f.Shape()
	out := make([]float64, len(data))
	idx := make([]int, len(shape))
	for flat := range data {
		pos, ok := monthPos[int(times[idx[t]].Month())]
		if !ok {
			out[flat] = math.NaN()
		} else {
			o := 0
			for j, k := range align {
				if k < 0 {
					o += pos * climStrides[j]
				} else {
					o += idx[k] * climStrides[j]
				}
			}
			out[flat] = data[flat] - climData[o]
		}
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
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
