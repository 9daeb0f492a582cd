package app

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport_SummarizesEngineProducts(t *testing.T) {
	e, err := NewEngine(syntheticSST(t), testConfig())
	require.NoError(t, err)

	r, err := BuildReport(context.Background(), e, "synthetic-pacific")
	require.NoError(t, err)

	assert.False(t, r.RunID.IsEmpty())
	assert.Equal(t, "synthetic-pacific", r.Dataset)
	assert.Equal(t, e.Fingerprint(), r.Fingerprint)
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, 96, r.Samples)

	require.Len(t, r.ExplainedVariance, 2)
	assert.Greater(t, r.ExplainedVariance[0], r.ExplainedVariance[1])

	assert.Equal(t, 120, r.E.Samples)
	assert.Equal(t, 120, r.C.Samples)
	assert.Equal(t, 120, r.ESmooth.Samples)
	assert.False(t, math.IsNaN(r.Alpha))

	require.Len(t, r.Zones, 4)
	for _, zone := range []string{"12", "3", "34", "4"} {
		stats, ok := r.Zones[zone]
		require.True(t, ok, "zone %s", zone)
		assert.Equal(t, 120, stats.Samples)
		assert.Equal(t, "nino"+zone, stats.Name)
	}
}

func TestBuildReport_HonorsCancelledContext(t *testing.T) {
	e, err := NewEngine(syntheticSST(t), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = BuildReport(ctx, e, "synthetic-pacific")
	assert.ErrorIs(t, err, context.Canceled)
}
