package app

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goenso/domain/core"
	"goenso/domain/field"
)

func monthlySeries(t *testing.T, startYear int, values []float64) *field.Field {
	t.Helper()
	times := make([]time.Time, len(values))
	for i := range times {
		times[i] = time.Date(startYear+i/12, time.Month(i%12+1), 1, 0, 0, 0, 0, time.UTC)
	}
	f, err := field.New("series", []field.Axis{field.TimeAxis(times)}, values)
	require.NoError(t, err)
	return f
}

func TestDJFMeans_LabelsSeasonsByJanuaryYear(t *testing.T) {
	values := make([]float64, 36)
	for i := range values {
		values[i] = float64(i)
	}
	f := monthlySeries(t, 1996, values)

	djf, err := DJFMeans(f)
	require.NoError(t, err)

	// January and February 1996 have no preceding December, and December
	// 1998 has no following January, so only two seasons are complete.
	assert.Equal(t, []string{"year"}, djf.Dims())
	assert.Equal(t, []float64{1997, 1998}, djf.Coords("year"))
	assert.InDelta(t, 12, djf.At(0), 1e-12) // Dec 96, Jan 97, Feb 97
	assert.InDelta(t, 24, djf.At(1), 1e-12) // Dec 97, Jan 98, Feb 98
}

func TestDJFMeans_SkipsNaNWithinSeason(t *testing.T) {
	values := make([]float64, 36)
	for i := range values {
		values[i] = float64(i)
	}
	values[11] = math.NaN() // Dec 96
	f := monthlySeries(t, 1996, values)

	djf, err := DJFMeans(f)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, djf.At(0), 1e-12)
}

func TestDJFMeans_ErrorsWithoutCompleteSeason(t *testing.T) {
	times := []time.Time{
		time.Date(1996, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1996, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1996, time.December, 1, 0, 0, 0, 0, time.UTC),
	}
	f, err := field.New("series", []field.Axis{field.TimeAxis(times)}, []float64{1, 2, 3})
	require.NoError(t, err)

	_, err = DJFMeans(f)
	assert.True(t, core.IsInvalidArgument(err))
}

func TestDJFMeans_BroadcastsOverModes(t *testing.T) {
	values := make([]float64, 48)
	for i := range values {
		values[i] = float64(i / 2 * 10)
		if i%2 == 1 {
			values[i] += 1
		}
	}
	times := make([]time.Time, 24)
	for i := range times {
		times[i] = time.Date(1996+i/12, time.Month(i%12+1), 1, 0, 0, 0, 0, time.UTC)
	}
	f, err := field.New("pcs", []field.Axis{field.TimeAxis(times), field.ModeAxis(2)}, values)
	require.NoError(t, err)

	djf, err := DJFMeans(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "mode"}, djf.Dims())
	assert.Equal(t, []float64{1997}, djf.Coords("year"))
	assert.InDelta(t, 120, djf.At(0, 0), 1e-12) // months 11,12,13 carry 110,120,130
	assert.InDelta(t, 121, djf.At(0, 1), 1e-12)
}

func TestDJFMeans_RequiresTimeAxis(t *testing.T) {
	f, err := field.New("flat", []field.Axis{field.ModeAxis(2)}, []float64{1, 2})
	require.NoError(t, err)

	_, err = DJFMeans(f)
	assert.True(t, core.IsMissingDimension(err))
}
