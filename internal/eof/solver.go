// Package eof fits area-weighted empirical orthogonal functions of an
// anomaly field over a reference sub-domain and base period, and projects
// anomaly series onto the leading modes to obtain principal components.
package eof

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/domain/field"
)

// Modes is the number of retained EOF modes. The E/C index construction is
// defined on the leading two.
const Modes = 2

// Config restricts the decomposition in space and time. A zero Domain falls
// back to the tropical Pacific default; a zero Base uses the full series.
type Config struct {
	Domain enso.Region
	Base   core.Period
}

// Solver is a fitted decomposition: the restricted grid, the √cos(lat)
// area weights, the ocean mask, and the leading eigenvectors and
// eigenvalues of the weighted covariance. Immutable once fitted.
type Solver struct {
	domain enso.Region
	base   core.Period

	lats    []float64
	lons    []float64
	weights []float64 // per-latitude √cos(lat)

	valid   []int      // flat lat*nlon+lon channels free of NaN over the base period
	modes   *mat.Dense // Modes × len(valid) unit-norm eigenvectors
	eigs    []float64  // all eigenvalues, descending
	samples int
}

// Fit decomposes the base-period slice of an anomaly field. The field must
// be ordered (time, lat, lon); latitude is sorted ascending internally.
// Grid cells containing NaN anywhere in the base period are masked out.
// Underdetermined input (fewer base samples or usable cells than retained
// modes) and degenerate covariance fail with DecompositionError.
func Fit(anom *field.Field, cfg Config) (*Solver, error) {
	if err := requireOrder(anom); err != nil {
		return nil, err
	}
	if cfg.Domain.IsZero() {
		cfg.Domain = enso.DefaultDomain
	}
	if err := cfg.Domain.Validate(); err != nil {
		return nil, err
	}

	sub, err := restrictDomain(anom, cfg.Domain)
	if err != nil {
		return nil, err
	}
	base := sub
	if !cfg.Base.IsZero() {
		r, err := cfg.Base.Resolve()
		if err != nil {
			return nil, err
		}
		base, err = sub.SelPeriod(r)
		if err != nil {
			return nil, err
		}
	}

	nsamples := len(base.Times())
	if nsamples < Modes {
		return nil, core.NewDecompositionError(
			fmt.Sprintf("base period holds %d samples, need at least %d", nsamples, Modes))
	}

	lats := base.Coords("lat")
	lons := base.Coords("lon")
	weights := make([]float64, len(lats))
	for i, la := range lats {
		weights[i] = math.Sqrt(math.Cos(la * math.Pi / 180))
	}

	nlon := len(lons)
	nchan := len(lats) * nlon
	data := base.Values()

	masked := make([]bool, nchan)
	for t := 0; t < nsamples; t++ {
		row := data[t*nchan : (t+1)*nchan]
		for c, v := range row {
			if math.IsNaN(v) {
				masked[c] = true
			}
		}
	}
	valid := make([]int, 0, nchan)
	for c := 0; c < nchan; c++ {
		if !masked[c] {
			valid = append(valid, c)
		}
	}
	if len(valid) < Modes {
		return nil, core.NewDecompositionError(
			fmt.Sprintf("sub-domain holds %d usable grid cells, need at least %d", len(valid), Modes))
	}

	// Weighted and centered record matrix, one column per valid channel.
	x := mat.NewDense(nsamples, len(valid), nil)
	for k, c := range valid {
		w := weights[c/nlon]
		sum := 0.0
		for t := 0; t < nsamples; t++ {
			v := data[t*nchan+c] * w
			x.Set(t, k, v)
			sum += v
		}
		mean := sum / float64(nsamples)
		for t := 0; t < nsamples; t++ {
			x.Set(t, k, x.At(t, k)-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, core.NewDecompositionError("singular value decomposition did not converge")
	}
	sv := svd.Values(nil)
	if sv[0] == 0 || sv[Modes-1] <= sv[0]*1e-12 {
		return nil, core.NewDecompositionError("covariance is degenerate in the retained modes")
	}
	eigs := make([]float64, len(sv))
	for i, s := range sv {
		eigs[i] = s * s / float64(nsamples-1)
	}

	var v mat.Dense
	svd.VTo(&v)
	modes := mat.NewDense(Modes, len(valid), nil)
	for m := 0; m < Modes; m++ {
		for k := range valid {
			modes.Set(m, k, v.At(k, m))
		}
	}

	return &Solver{
		domain:  cfg.Domain,
		base:    cfg.Base,
		lats:    lats,
		lons:    lons,
		weights: weights,
		valid:   valid,
		modes:   modes,
		eigs:    eigs,
		samples: nsamples,
	}, nil
}

// Project computes principal components of a (time, lat, lon) anomaly field
// on the fitted modes. The field is restricted to the fitted sub-domain,
// weighted, and centered by its own time mean before projection; PCs are
// scaled by 1/√eigenvalue so their base-period variance is one per mode.
// The field's grid must match the fitted grid, and its ocean cells must be
// NaN-free.
func (s *Solver) Project(anom *field.Field) (*field.Field, error) {
	if err := requireOrder(anom); err != nil {
		return nil, err
	}
	sub, err := restrictDomain(anom, s.domain)
	if err != nil {
		return nil, err
	}
	if !floats.Equal(sub.Coords("lat"), s.lats) || !floats.Equal(sub.Coords("lon"), s.lons) {
		return nil, core.NewShapeMismatchError("the fitted sub-domain grid", "a different grid")
	}
	times := sub.Times()
	nt := len(times)
	if nt == 0 {
		return nil, core.NewInvalidArgumentError("projection field has no time samples")
	}

	nlon := len(s.lons)
	nchan := len(s.lats) * nlon
	data := sub.Values()

	x := mat.NewDense(nt, len(s.valid), nil)
	for k, c := range s.valid {
		w := s.weights[c/nlon]
		sum := 0.0
		for t := 0; t < nt; t++ {
			v := data[t*nchan+c]
			if math.IsNaN(v) {
				return nil, core.NewInvalidArgumentError("field carries missing values inside the fitted ocean mask")
			}
			vw := v * w
			x.Set(t, k, vw)
			sum += vw
		}
		mean := sum / float64(nt)
		for t := 0; t < nt; t++ {
			x.Set(t, k, x.At(t, k)-mean)
		}
	}

	var proj mat.Dense
	proj.Mul(x, s.modes.T())

	out := make([]float64, nt*Modes)
	for t := 0; t < nt; t++ {
		for m := 0; m < Modes; m++ {
			out[t*Modes+m] = proj.At(t, m) / math.Sqrt(s.eigs[m])
		}
	}
	return field.New("pcs", []field.Axis{field.TimeAxis(times), field.ModeAxis(Modes)}, out)
}

// EOFs returns the retained spatial patterns as a (mode, lat, lon) field on
// the fitted sub-domain grid, scaled by 1/√eigenvalue. Masked cells hold
// NaN.
func (s *Solver) EOFs() *field.Field {
	nlat, nlon := len(s.lats), len(s.lons)
	nchan := nlat * nlon
	data := make([]float64, Modes*nchan)
	for i := range data {
		data[i] = math.NaN()
	}
	for m := 0; m < Modes; m++ {
		scale := 1 / math.Sqrt(s.eigs[m])
		for k, c := range s.valid {
			data[m*nchan+c] = s.modes.At(m, k) * scale
		}
	}
	lats := make([]float64, nlat)
	copy(lats, s.lats)
	lons := make([]float64, nlon)
	copy(lons, s.lons)
	return field.MustNew("eofs", []field.Axis{
		field.ModeAxis(Modes),
		field.NumAxis("lat", lats),
		field.NumAxis("lon", lons),
	}, data)
}

// Eigenvalues returns every eigenvalue of the weighted covariance in
// descending order, not only the retained ones.
func (s *Solver) Eigenvalues() []float64 {
	out := make([]float64, len(s.eigs))
	copy(out, s.eigs)
	return out
}

// ExplainedVariance returns the fraction of total variance captured by each
// retained mode.
func (s *Solver) ExplainedVariance() []float64 {
	total := 0.0
	for _, e := range s.eigs {
		total += e
	}
	out := make([]float64, Modes)
	if total == 0 {
		return out
	}
	for m := 0; m < Modes; m++ {
		out[m] = s.eigs[m] / total
	}
	return out
}

// Samples returns the base-period sample count the fit used.
func (s *Solver) Samples() int { return s.samples }

// Domain returns the spatial sub-domain the fit restricted to.
func (s *Solver) Domain() enso.Region { return s.domain }

// Base returns the base period the fit restricted to.
func (s *Solver) Base() core.Period { return s.base }

// requireOrder enforces the (time, lat, lon) axis layout the record-matrix
// construction assumes.
func requireOrder(f *field.Field) error {
	if err := f.RequireDims("time", "lat", "lon"); err != nil {
		return err
	}
	if f.NDim() != 3 || f.AxisIndex("time") != 0 || f.AxisIndex("lat") != 1 || f.AxisIndex("lon") != 2 {
		return core.NewInvalidArgumentErrorf("decomposition needs (time, lat, lon) axis order, got %v", f.Dims())
	}
	return nil
}

// restrictDomain sorts the spatial axes ascending and cuts the field to the
// box, inclusive on every bound.
func restrictDomain(f *field.Field, box enso.Region) (*field.Field, error) {
	sorted, err := f.SortBy("lat", "lon")
	if err != nil {
		return nil, err
	}
	sub, err := sorted.SelRange("lat", box.LatMin, box.LatMax)
	if err != nil {
		return nil, err
	}
	return sub.SelRange("lon", box.LonMin, box.LonMax)
}
