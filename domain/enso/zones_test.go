package enso

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goenso/domain/core"
	"goenso/domain/field"
)

// lonIndexField builds a global 1-degree grid where every cell's value is
// its longitude index (0..359), constant over latitude.
func lonIndexField() *field.Field {
	lats := make([]float64, 31)
	for i := range lats {
		lats[i] = float64(i - 15)
	}
	lons := make([]float64, 360)
	data := make([]float64, len(lats)*len(lons))
	for i := range lons {
		lons[i] = float64(i)
	}
	for i := range lats {
		for j := range lons {
			data[i*len(lons)+j] = float64(j)
		}
	}
	return field.MustNew("sst", []field.Axis{
		field.NumAxis("lat", lats),
		field.NumAxis("lon", lons),
	}, data)
}

func TestZoneMean_KnownBoxes(t *testing.T) {
	f := lonIndexField()

	cases := []struct {
		zone string
		want float64
	}{
		{"12", 275},
		{"3", 240},
		{"34", 215},
		{"4", 185},
	}
	for _, tc := range cases {
		t.Run("zone"+tc.zone, func(t *testing.T) {
			mean, err := ZoneMean(f, tc.zone)
			require.NoError(t, err)
			v, err := mean.Scalar()
			require.NoError(t, err)
			assert.InDelta(t, tc.want, v, 1e-12)
		})
	}
}

func TestZoneMean_UnknownZone(t *testing.T) {
	f := lonIndexField()
	_, err := ZoneMean(f, "5")
	require.Error(t, err)
	assert.True(t, core.IsInvalidArgument(err))
}

func TestZoneMean_KeepsTimeAxis(t *testing.T) {
	lats := []float64{-5, 0, 5}
	lons := []float64{190, 200, 210, 220, 230, 240}
	times := []time.Time{
		time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2001, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	data := make([]float64, len(times)*len(lats)*len(lons))
	for i := range data {
		t := i / (len(lats) * len(lons))
		data[i] = float64(t + 1)
	}
	f := field.MustNew("sst", []field.Axis{
		field.TimeAxis(times),
		field.NumAxis("lat", lats),
		field.NumAxis("lon", lons),
	}, data)

	series, err := ZoneMean(f, "34")
	require.NoError(t, err)
	assert.Equal(t, []string{"time"}, series.Dims())
	assert.InDeltaSlice(t, []float64{1, 2}, series.Values(), 1e-12)
	assert.Equal(t, "nino34", series.Name())
}

func TestZoneMean_RequiresSpatialAxes(t *testing.T) {
	f := field.MustNew("sst", []field.Axis{field.NumAxis("lat", []float64{0, 1})}, []float64{1, 2})
	_, err := ZoneMean(f, "34")
	require.Error(t, err)
	assert.True(t, core.IsMissingDimension(err))
}

func TestZones_SortedKeys(t *testing.T) {
	assert.Equal(t, []string{"12", "3", "34", "4"}, Zones())
}
