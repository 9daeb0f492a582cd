package smoothing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goenso/domain/core"
	"goenso/domain/field"
)

func timeSeries(values ...float64) *field.Field {
	times := make([]time.Time, len(values))
	for i := range times {
		times[i] = time.Date(2000, time.Month(i%12+1), 1, 0, 0, 0, 0, time.UTC).AddDate(i/12, 0, 0)
	}
	return field.MustNew("pc", []field.Axis{field.TimeAxis(times)}, values)
}

func TestNewKernel_NormalizesToUnitSum(t *testing.T) {
	k, err := NewKernel([]float64{2, 4, 2})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 0.25}, k.Weights(), 1e-15)

	// Same normalized taps whatever the input scale.
	k2, err := NewKernel([]float64{1, 2, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, k.Weights(), k2.Weights(), 1e-15)
}

func TestNewKernel_RejectsDegenerateInput(t *testing.T) {
	_, err := NewKernel(nil)
	require.Error(t, err)
	assert.True(t, core.IsInvalidArgument(err))

	_, err = NewKernel([]float64{1, -1})
	require.Error(t, err)
	assert.True(t, core.IsInvalidArgument(err))
}

func TestConvolve_SingleTapIsIdentity(t *testing.T) {
	f := timeSeries(3, 1, 4, 1, 5, 9, 2, 6)
	k, err := NewKernel([]float64{1})
	require.NoError(t, err)

	out, err := Convolve(f, k, "time")
	require.NoError(t, err)
	assert.Equal(t, f.Shape(), out.Shape())
	assert.InDeltaSlice(t, f.Values(), out.Values(), 0)
	assert.Equal(t, f.Times(), out.Times())
}

func TestConvolve_BinomialKernelWithReflectEdges(t *testing.T) {
	f := timeSeries(1, 2, 3, 4)
	out, err := Convolve(f, Default(), "time")
	require.NoError(t, err)
	// Edges mirror the first/last sample.
	assert.InDeltaSlice(t, []float64{1.25, 2, 3, 3.75}, out.Values(), 1e-12)
}

func TestConvolve_EvenKernelCentering(t *testing.T) {
	// Reference output from a two-tap linear convolution of
	// [2 8 0 4 1 9 9 0] with (1,3)/4 under reflect padding.
	f := timeSeries(2, 8, 0, 4, 1, 9, 9, 0)
	k, err := NewKernel([]float64{1, 3})
	require.NoError(t, err)

	out, err := Convolve(f, k, "time")
	require.NoError(t, err)
	want := []float64{14, 24, 4, 13, 12, 36, 27, 0}
	for i := range want {
		want[i] /= 4
	}
	assert.InDeltaSlice(t, want, out.Values(), 1e-12)
}

func TestConvolve_PerLineAlongNamedAxis(t *testing.T) {
	times := []time.Time{
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	f := field.MustNew("pcs", []field.Axis{
		field.TimeAxis(times),
		field.ModeAxis(2),
	}, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	out, err := Convolve(f, Default(), "time")
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "mode"}, out.Dims())
	assert.InDelta(t, 1.25, out.At(0, 0), 1e-12)
	assert.InDelta(t, 12.5, out.At(0, 1), 1e-12)
	assert.InDelta(t, 2, out.At(1, 0), 1e-12)
	assert.InDelta(t, 37.5, out.At(3, 1), 1e-12)
}

func TestConvolve_MissingAxis(t *testing.T) {
	f := timeSeries(1, 2, 3)
	_, err := Convolve(f, Default(), "lon")
	require.Error(t, err)
	assert.True(t, core.IsMissingDimension(err))
}
