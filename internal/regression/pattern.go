package regression

import (
	"math"
	"time"

	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/domain/field"
)

// PatternMap regresses the E and C index onto every grid cell of the
// anomaly field over the base period: the covariance of index and cell time
// series divided by the index's sample standard deviation. A zero period
// uses the full series. The maps cover the field's full grid, one
// (lat, lon) field per index variable.
func PatternMap(idx enso.Index, anom *field.Field, base core.Period) (enso.Patterns, error) {
	if err := anom.RequireDims("time", "lat", "lon"); err != nil {
		return enso.Patterns{}, err
	}
	if anom.NDim() != 3 || anom.AxisIndex("time") != 0 {
		return enso.Patterns{}, core.NewInvalidArgumentErrorf("regression needs a (time, lat, lon) field, got %v", anom.Dims())
	}

	e, c, sub := idx.E, idx.C, anom
	if !base.IsZero() {
		r, err := base.Resolve()
		if err != nil {
			return enso.Patterns{}, err
		}
		if e, err = e.SelPeriod(r); err != nil {
			return enso.Patterns{}, err
		}
		if c, err = c.SelPeriod(r); err != nil {
			return enso.Patterns{}, err
		}
		if sub, err = anom.SelPeriod(r); err != nil {
			return enso.Patterns{}, err
		}
	}

	times := sub.Times()
	if len(times) < 2 {
		return enso.Patterns{}, core.NewDecompositionError("covariance needs at least 2 base-period samples")
	}
	if !sameTimes(e.Times(), times) || !sameTimes(c.Times(), times) {
		return enso.Patterns{}, core.NewShapeMismatchError("index and field on the same time axis", "diverging time axes")
	}

	latAxis := sub.Axis(sub.AxisIndex("lat"))
	lonAxis := sub.Axis(sub.AxisIndex("lon"))
	nchan := latAxis.Len() * lonAxis.Len()
	data := sub.Values()

	ePat, err := covPattern(e.Values(), data, nchan)
	if err != nil {
		return enso.Patterns{}, err
	}
	cPat, err := covPattern(c.Values(), data, nchan)
	if err != nil {
		return enso.Patterns{}, err
	}

	eField, err := field.New("E_pattern", []field.Axis{latAxis, lonAxis}, ePat)
	if err != nil {
		return enso.Patterns{}, err
	}
	cField, err := field.New("C_pattern", []field.Axis{latAxis, lonAxis}, cPat)
	if err != nil {
		return enso.Patterns{}, err
	}
	return enso.Patterns{E: eField, C: cField}, nil
}

// covPattern computes cov(index, cell)/std(index) per channel. Cells with
// NaN anywhere in the record come out NaN; a zero-variance index is a
// degenerate estimate.
func covPattern(index []float64, data []float64, nchan int) ([]float64, error) {
	n := len(index)
	mean := 0.0
	for _, v := range index {
		mean += v
	}
	mean /= float64(n)

	cent := make([]float64, n)
	ss := 0.0
	for t, v := range index {
		cent[t] = v - mean
		ss += cent[t] * cent[t]
	}
	std := math.Sqrt(ss / float64(n-1))
	if std == 0 || math.IsNaN(std) {
		return nil, core.NewDecompositionError("index series has no variance over the base period")
	}

	out := make([]float64, nchan)
	for ch := 0; ch < nchan; ch++ {
		sum := 0.0
		for t := 0; t < n; t++ {
			sum += data[t*nchan+ch]
		}
		cellMean := sum / float64(n)
		cov := 0.0
		for t := 0; t < n; t++ {
			cov += cent[t] * (data[t*nchan+ch] - cellMean)
		}
		out[ch] = cov / float64(n-1) / std
	}
	return out, nil
}

func sameTimes(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
