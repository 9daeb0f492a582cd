package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodResolve_PartialLabels(t *testing.T) {
	tests := []struct {
		name     string
		period   Period
		inside   []time.Time
		outside  []time.Time
	}{
		{
			name:   "year labels cover whole years",
			period: NewPeriod("1991", "2020"),
			inside: []time.Time{
				time.Date(1991, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 12, 31, 23, 0, 0, 0, time.UTC),
			},
			outside: []time.Time{
				time.Date(1990, 12, 31, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:   "month labels cover whole months",
			period: NewPeriod("1997-11", "1998-02"),
			inside: []time.Time{
				time.Date(1997, 11, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1998, 2, 28, 12, 0, 0, 0, time.UTC),
			},
			outside: []time.Time{
				time.Date(1997, 10, 31, 0, 0, 0, 0, time.UTC),
				time.Date(1998, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:   "full date labels cover whole days",
			period: NewPeriod("1979-01-01", "2009-12-30"),
			inside: []time.Time{
				time.Date(1979, 1, 1, 6, 0, 0, 0, time.UTC),
				time.Date(2009, 12, 30, 23, 59, 0, 0, time.UTC),
			},
			outside: []time.Time{
				time.Date(1978, 12, 31, 23, 0, 0, 0, time.UTC),
				time.Date(2009, 12, 31, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.period.Resolve()
			require.NoError(t, err)
			for _, ts := range tt.inside {
				assert.True(t, r.Contains(ts), "expected %s inside %s", ts, tt.period)
			}
			for _, ts := range tt.outside {
				assert.False(t, r.Contains(ts), "expected %s outside %s", ts, tt.period)
			}
		})
	}
}

func TestPeriodResolve_OpenEnds(t *testing.T) {
	r, err := NewPeriod("", "1999").Resolve()
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Date(1850, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))

	r, err = Period{}.Resolve()
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Date(1850, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodResolve_BadLabel(t *testing.T) {
	_, err := NewPeriod("not-a-date", "2000").Resolve()
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}
