// Package enso holds the ENSO domain vocabulary: tropical Pacific regions,
// EOF mode correction factors, the E/C index pair, and the fixed Niño zones.
package enso

import (
	"fmt"

	"goenso/domain/core"
	"goenso/domain/field"
)

// Region is a rectangular lat/lon box in degrees, longitude in [0,360).
type Region struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// DefaultDomain is the tropical Pacific box the EOF decomposition restricts
// to unless configured otherwise.
var DefaultDomain = Region{LatMin: -10, LatMax: 10, LonMin: 110, LonMax: 290}

// IsZero reports whether the region was never set.
func (r Region) IsZero() bool {
	return r == Region{}
}

// String renders the box for logs and config fingerprints.
func (r Region) String() string {
	return fmt.Sprintf("lat[%g,%g] lon[%g,%g]", r.LatMin, r.LatMax, r.LonMin, r.LonMax)
}

// Validate rejects boxes with inverted bounds or longitudes outside [0,360).
func (r Region) Validate() error {
	if r.LatMin > r.LatMax {
		return core.NewInvalidArgumentErrorf("region latitude bounds inverted: %g > %g", r.LatMin, r.LatMax)
	}
	if r.LonMin > r.LonMax {
		return core.NewInvalidArgumentErrorf("region longitude bounds inverted: %g > %g", r.LonMin, r.LonMax)
	}
	if r.LatMin < -90 || r.LatMax > 90 {
		return core.NewInvalidArgumentErrorf("region latitude outside [-90,90]: %s", r)
	}
	if r.LonMin < 0 || r.LonMax > 360 {
		return core.NewInvalidArgumentErrorf("region longitude outside [0,360]: %s", r)
	}
	return nil
}

// CorrectionFactor is the per-mode sign fix applied to the leading two
// principal components. Eigenvector sign is arbitrary, so without it the
// index sign carries no physical meaning.
type CorrectionFactor [2]float64

// Identity is the correction that leaves PCs unchanged.
func Identity() CorrectionFactor {
	return CorrectionFactor{1, 1}
}

// NewCorrectionFactor validates a caller-supplied factor: exactly one entry
// per retained mode, each ±1.
func NewCorrectionFactor(vals []float64) (CorrectionFactor, error) {
	if len(vals) != 2 {
		return CorrectionFactor{}, core.NewInvalidArgumentErrorf("correction factor needs exactly 2 entries, got %d", len(vals))
	}
	var c CorrectionFactor
	copy(c[:], vals)
	if err := c.Validate(); err != nil {
		return CorrectionFactor{}, err
	}
	return c, nil
}

// IsZero reports whether the factor is unset. The zero value is not a valid
// factor; a set factor always holds ±1 entries.
func (c CorrectionFactor) IsZero() bool {
	return c == CorrectionFactor{}
}

// Validate rejects entries other than +1 and -1.
func (c CorrectionFactor) Validate() error {
	for _, v := range c {
		if v != 1 && v != -1 {
			return core.NewInvalidArgumentErrorf("correction factor entries must be +1 or -1, got %g", v)
		}
	}
	return nil
}

// Apply multiplies each mode of a mode-carrying field by its sign. The field
// must carry a mode axis of length 2.
func (c CorrectionFactor) Apply(f *field.Field) (*field.Field, error) {
	mi := f.AxisIndex("mode")
	if mi < 0 {
		return nil, core.NewMissingDimensionError("mode")
	}
	shape := f.Shape()
	if shape[mi] != len(c) {
		return nil, core.NewInvalidArgumentErrorf("correction factor has %d entries for %d modes", len(c), shape[mi])
	}

	data := f.Values()
	out := make([]float64, len(data))
	idx := make([]int, len(shape))
	for flat := range data {
		out[flat] = data[flat] * c[idx[mi]]
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

// String renders the factor as "[+1 -1]".
func (c CorrectionFactor) String() string {
	return fmt.Sprintf("[%+g %+g]", c[0], c[1])
}

// Index is the E/C index pair: two time series separating eastern-Pacific
// and central-Pacific ENSO variability.
type Index struct {
	E *field.Field
	C *field.Field
}

// Patterns is the pair of spatial regression maps associated with an Index.
type Patterns struct {
	E *field.Field
	C *field.Field
}
