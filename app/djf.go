package app

import (
	"math"
	"sort"
	"time"

	"goenso/domain/core"
	"goenso/domain/field"
)

// DJFMeans averages a time-indexed field over December-February seasons,
// the months that carry most ENSO variance. Each season is labeled with the
// year of its January, so December 1997 with January and February 1998
// yields the 1998 value. Seasons missing any of the three months are
// dropped. The year axis takes the position of the time axis.
func DJFMeans(f *field.Field) (*field.Field, error) {
	if err := f.RequireDims("time"); err != nil {
		return nil, err
	}
	t := f.AxisIndex("time")
	if !f.Axis(t).IsTime() {
		return nil, core.NewInvalidArgumentError("time axis carries no calendar coordinates")
	}
	times := f.Axis(t).Times

	const (
		hasDec = 1 << iota
		hasJan
		hasFeb
	)
	seasonOf := make([]int, len(times))
	months := make(map[int]int)
	for i, ts := range times {
		switch ts.Month() {
		case time.December:
			seasonOf[i] = ts.Year() + 1
			months[seasonOf[i]] |= hasDec
		case time.January:
			seasonOf[i] = ts.Year()
			months[seasonOf[i]] |= hasJan
		case time.February:
			seasonOf[i] = ts.Year()
			months[seasonOf[i]] |= hasFeb
		default:
			seasonOf[i] = 0
		}
	}
	years := make([]int, 0, len(months))
	for y, m := range months {
		if m == hasDec|hasJan|hasFeb {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return nil, core.NewInvalidArgumentError("series holds no complete December-February season")
	}
	sort.Ints(years)
	yearPos := make(map[int]int, len(years))
	coords := make([]float64, len(years))
	for i, y := range years {
		yearPos[y] = i
		coords[i] = float64(y)
	}

	axes := make([]field.Axis, f.NDim())
	for i := range axes {
		if i == t {
			axes[i] = field.NumAxis("year", coords)
		} else {
			axes[i] = f.Axis(i)
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
	data := f.Values()
	shape := f.Shape()
	idx := make([]int, len(shape))
	for flat := range data {
		pos, ok := yearPos[seasonOf[idx[t]]]
		if ok && !math.IsNaN(data[flat]) {
			o := 0
			for d := range idx {
				if d == t {
					o += pos * outStrides[d]
				} else {
					o += idx[d] * outStrides[d]
				}
			}
			sums[o] += data[flat]
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
	return field.New(f.Name(), axes, out)
}
