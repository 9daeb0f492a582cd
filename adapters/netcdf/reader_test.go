package netcdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTimes_DaysSinceEpoch(t *testing.T) {
	// ERSST-style encoding.
	got, err := decodeTimes([]float64{0, 31, 59}, "days since 1800-01-01 00:00:00")
	require.NoError(t, err)

	assert.Equal(t, time.Date(1800, time.January, 1, 0, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(1800, time.February, 1, 0, 0, 0, 0, time.UTC), got[1])
	assert.Equal(t, time.Date(1800, time.March, 1, 0, 0, 0, 0, time.UTC), got[2])
}

func TestDecodeTimes_HoursAndFractions(t *testing.T) {
	got, err := decodeTimes([]float64{0, 12.5}, "hours since 1979-1-1")
	require.NoError(t, err)

	assert.Equal(t, time.Date(1979, time.January, 1, 0, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(1979, time.January, 1, 12, 30, 0, 0, time.UTC), got[1])
}

func TestDecodeTimes_MonthsSinceEpoch(t *testing.T) {
	got, err := decodeTimes([]float64{0, 1, 13}, "months since 1960-01-01")
	require.NoError(t, err)

	assert.Equal(t, time.Date(1960, time.January, 1, 0, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(1960, time.February, 1, 0, 0, 0, 0, time.UTC), got[1])
	assert.Equal(t, time.Date(1961, time.February, 1, 0, 0, 0, 0, time.UTC), got[2])

	_, err = decodeTimes([]float64{0.5}, "months since 1960-01-01")
	assert.Error(t, err)
}

func TestDecodeTimes_RejectsUnknownForms(t *testing.T) {
	_, err := decodeTimes([]float64{0}, "fortnights since 1800-01-01")
	assert.Error(t, err)

	_, err = decodeTimes([]float64{0}, "just some text")
	assert.Error(t, err)
}

func TestParseEpoch_CommonLayouts(t *testing.T) {
	for _, s := range []string{
		"1800-01-01 00:00:00",
		"1800-1-1",
		"1800-01-01T00:00:00Z",
		"1800-01-01 00:00:00.0",
	} {
		got, err := parseEpoch(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.Date(1800, time.January, 1, 0, 0, 0, 0, time.UTC), got, s)
	}

	_, err := parseEpoch("the dawn of time")
	assert.Error(t, err)
}
