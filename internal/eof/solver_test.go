package eof

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/domain/field"
)

// Orthonormal spatial patterns over four grid cells.
var (
	pat1 = []float64{0.5, 0.5, 0.5, 0.5}
	pat2 = []float64{0.5, 0.5, -0.5, -0.5}
)

// synthField builds a (time, lat, lon) field as a·pat1 + b·pat2 per sample.
// len(lats)*len(lons) must equal len(pat1).
func synthField(t *testing.T, lats, lons []float64, a, b []float64) *field.Field {
	t.Helper()
	require.Equal(t, len(a), len(b))
	require.Equal(t, len(pat1), len(lats)*len(lons))

	times := make([]time.Time, len(a))
	data := make([]float64, len(a)*len(pat1))
	for i := range a {
		times[i] = time.Date(2000, time.Month(i%12+1), 1, 0, 0, 0, 0, time.UTC).AddDate(i/12, 0, 0)
		for c := range pat1 {
			data[i*len(pat1)+c] = a[i]*pat1[c] + b[i]*pat2[c]
		}
	}
	return field.MustNew("ssta", []field.Axis{
		field.TimeAxis(times),
		field.NumAxis("lat", lats),
		field.NumAxis("lon", lons),
	}, data)
}

// alignSign flips got so its leading entry agrees with want, removing the
// arbitrary eigenvector sign before comparison.
func alignSign(got, want []float64) []float64 {
	for i := range want {
		if want[i] != 0 && got[i] != 0 {
			if got[i]*want[i] < 0 {
				out := make([]float64, len(got))
				for j, v := range got {
					out[j] = -v
				}
				return out
			}
			return got
		}
	}
	return got
}

func pcColumn(t *testing.T, pcs *field.Field, mode int) []float64 {
	t.Helper()
	n := len(pcs.Times())
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = pcs.At(i, mode)
	}
	return out
}

func TestFit_RecoversPlantedModes(t *testing.T) {
	a := []float64{2, -2, 1, -1}
	b := []float64{1, 1, -1, -1}
	f := synthField(t, []float64{0}, []float64{120, 130, 140, 150}, a, b)

	s, err := Fit(f, Config{})
	require.NoError(t, err)

	eigs := s.Eigenvalues()
	require.GreaterOrEqual(t, len(eigs), 2)
	assert.InDelta(t, 10.0/3, eigs[0], 1e-10)
	assert.InDelta(t, 4.0/3, eigs[1], 1e-10)

	frac := s.ExplainedVariance()
	assert.InDelta(t, 10.0/14, frac[0], 1e-10)
	assert.InDelta(t, 4.0/14, frac[1], 1e-10)

	pcs, err := s.Project(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "mode"}, pcs.Dims())
	assert.Equal(t, []int{4, 2}, pcs.Shape())

	wantPC0 := scaled(a, math.Sqrt(3.0/10))
	wantPC1 := scaled(b, math.Sqrt(3)/2)
	assert.InDeltaSlice(t, wantPC0, alignSign(pcColumn(t, pcs, 0), wantPC0), 1e-10)
	assert.InDeltaSlice(t, wantPC1, alignSign(pcColumn(t, pcs, 1), wantPC1), 1e-10)
}

func TestFit_AreaWeightsScaleEigenvalues(t *testing.T) {
	a := []float64{2, -2, 1, -1}
	b := []float64{1, 1, -1, -1}
	// Two latitudes at ±60°: √cos weights shrink every channel by √0.5, so
	// eigenvalues halve while unit-variance PCs stay put.
	f := synthField(t, []float64{-60, 60}, []float64{200, 210}, a, b)
	cfg := Config{Domain: enso.Region{LatMin: -70, LatMax: 70, LonMin: 0, LonMax: 360}}

	s, err := Fit(f, cfg)
	require.NoError(t, err)
	eigs := s.Eigenvalues()
	assert.InDelta(t, 0.5*10.0/3, eigs[0], 1e-10)
	assert.InDelta(t, 0.5*4.0/3, eigs[1], 1e-10)

	pcs, err := s.Project(f)
	require.NoError(t, err)
	wantPC0 := scaled(a, math.Sqrt(3.0/10))
	assert.InDeltaSlice(t, wantPC0, alignSign(pcColumn(t, pcs, 0), wantPC0), 1e-10)
}

func TestProject_FullSeriesCenteredByOwnMean(t *testing.T) {
	a := []float64{2, -2, 1, -1, 4, 2}
	b := []float64{1, 1, -1, -1, 2, 0}
	f := synthField(t, []float64{0}, []float64{120, 130, 140, 150}, a, b)

	s, err := Fit(f, Config{Base: core.NewPeriod("2000-01", "2000-04")})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Samples())

	pcs, err := s.Project(f)
	require.NoError(t, err)
	require.Equal(t, []int{6, 2}, pcs.Shape())

	// Projection removes the projected series' own mean: a has mean 1 over
	// the six samples, b has mean 1/3.
	wantPC0 := scaled([]float64{1, -3, 0, -2, 3, 1}, math.Sqrt(3.0/10))
	wantPC1 := scaled([]float64{2.0 / 3, 2.0 / 3, -4.0 / 3, -4.0 / 3, 5.0 / 3, -1.0 / 3}, math.Sqrt(3)/2)
	assert.InDeltaSlice(t, wantPC0, alignSign(pcColumn(t, pcs, 0), wantPC0), 1e-10)
	assert.InDeltaSlice(t, wantPC1, alignSign(pcColumn(t, pcs, 1), wantPC1), 1e-10)
}

func TestFit_MasksNaNChannels(t *testing.T) {
	a := []float64{2, -2, 1, -1}
	b := []float64{1, 1, -1, -1}
	lons := []float64{120, 130, 140, 150, 160}
	times := make([]time.Time, len(a))
	data := make([]float64, len(a)*len(lons))
	for i := range a {
		times[i] = time.Date(2000, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		for c := 0; c < 4; c++ {
			data[i*len(lons)+c] = a[i]*pat1[c] + b[i]*pat2[c]
		}
		data[i*len(lons)+4] = math.NaN() // land cell
	}
	f := field.MustNew("ssta", []field.Axis{
		field.TimeAxis(times),
		field.NumAxis("lat", []float64{0}),
		field.NumAxis("lon", lons),
	}, data)

	s, err := Fit(f, Config{})
	require.NoError(t, err)
	assert.InDelta(t, 10.0/3, s.Eigenvalues()[0], 1e-10)

	pcs, err := s.Project(f)
	require.NoError(t, err)
	wantPC0 := scaled(a, math.Sqrt(3.0/10))
	assert.InDeltaSlice(t, wantPC0, alignSign(pcColumn(t, pcs, 0), wantPC0), 1e-10)

	eofs := s.EOFs()
	assert.Equal(t, []string{"mode", "lat", "lon"}, eofs.Dims())
	assert.True(t, math.IsNaN(eofs.At(0, 0, 4)))
	assert.InDelta(t, 0.5*math.Sqrt(3.0/10), math.Abs(eofs.At(0, 0, 0)), 1e-10)
}

func TestFit_TooFewSamples(t *testing.T) {
	a := []float64{2, -2, 1, -1}
	b := []float64{1, 1, -1, -1}
	f := synthField(t, []float64{0}, []float64{120, 130, 140, 150}, a, b)

	_, err := Fit(f, Config{Base: core.NewPeriod("2000-01", "2000-01")})
	require.Error(t, err)
	assert.True(t, core.IsDecompositionError(err))
}

func TestFit_DegenerateCovariance(t *testing.T) {
	// Rank-one series: the second retained mode has zero variance.
	a := []float64{2, -2, 1, -1}
	b := []float64{0, 0, 0, 0}
	f := synthField(t, []float64{0}, []float64{120, 130, 140, 150}, a, b)

	_, err := Fit(f, Config{})
	require.Error(t, err)
	assert.True(t, core.IsDecompositionError(err))

	flat := synthField(t, []float64{0}, []float64{120, 130, 140, 150},
		[]float64{0, 0, 0, 0}, []float64{0, 0, 0, 0})
	_, err = Fit(flat, Config{})
	require.Error(t, err)
	assert.True(t, core.IsDecompositionError(err))
}

func TestFit_RequiresTimeLatLonOrder(t *testing.T) {
	f := field.MustNew("ssta", []field.Axis{
		field.NumAxis("lat", []float64{0}),
		field.TimeAxis([]time.Time{time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}),
		field.NumAxis("lon", []float64{120}),
	}, []float64{1})

	_, err := Fit(f, Config{})
	require.Error(t, err)
	assert.True(t, core.IsInvalidArgument(err))
}

func TestProject_RejectsForeignGrid(t *testing.T) {
	a := []float64{2, -2, 1, -1}
	b := []float64{1, 1, -1, -1}
	f := synthField(t, []float64{0}, []float64{120, 130, 140, 150}, a, b)

	s, err := Fit(f, Config{})
	require.NoError(t, err)

	other := synthField(t, []float64{0}, []float64{121, 131, 141, 151}, a, b)
	_, err = s.Project(other)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
}

func TestProject_RejectsNaNInsideMask(t *testing.T) {
	a := []float64{2, -2, 1, -1}
	b := []float64{1, 1, -1, -1}
	f := synthField(t, []float64{0}, []float64{120, 130, 140, 150}, a, b)

	s, err := Fit(f, Config{})
	require.NoError(t, err)

	damaged := f.Copy()
	damaged.Values()[5] = math.NaN()
	_, err = s.Project(damaged)
	require.Error(t, err)
	assert.True(t, core.IsInvalidArgument(err))
}

func scaled(in []float64, by float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = v * by
	}
	return out
}
