package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goenso/domain/enso"
	"goenso/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "METRICS_ENABLED",
		"DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
		"SST_FILE", "SST_VARIABLE", "DATASET_NAME", "EXPORT_DIR",
		"BASE_PERIOD_START", "BASE_PERIOD_END",
		"LAT_MIN", "LAT_MAX", "LON_MIN", "LON_MAX",
		"SMOOTH_KERNEL", "SIGN_STRATEGY",
		"MAX_CONCURRENT_COMPUTE", "COMPUTE_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.MetricsEnabled)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "sst", cfg.Data.Variable)
	assert.Equal(t, "ersstv5", cfg.Data.Dataset)

	assert.Equal(t, "1979-01-01", cfg.Engine.BaseStart)
	assert.Equal(t, "2009-12-30", cfg.Engine.BaseEnd)
	assert.Equal(t, enso.DefaultDomain, cfg.Engine.Domain())
	assert.Equal(t, []float64{1, 2, 1}, cfg.Engine.Kernel)
	assert.Equal(t, SignLoadingBox, cfg.Engine.SignStrategy)

	assert.EqualValues(t, 2, cfg.Compute.MaxConcurrent)
	assert.Equal(t, 5*time.Minute, cfg.Compute.Timeout)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/enso")
	t.Setenv("SMOOTH_KERNEL", "1, 4, 6, 4, 1")
	t.Setenv("LAT_MIN", "-20")
	t.Setenv("LAT_MAX", "20")
	t.Setenv("SIGN_STRATEGY", SignEventWindow)
	t.Setenv("COMPUTE_TIMEOUT", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/enso", cfg.Database.URL)
	assert.Equal(t, []float64{1, 4, 6, 4, 1}, cfg.Engine.Kernel)
	assert.Equal(t, -20.0, cfg.Engine.Domain().LatMin)
	assert.Equal(t, SignEventWindow, cfg.Engine.SignStrategy)
	assert.Equal(t, 90*time.Second, cfg.Compute.Timeout)

	kernel, err := cfg.Engine.SmoothingKernel()
	require.NoError(t, err)
	assert.Equal(t, 5, kernel.Len())
}

func TestLoad_RejectsMalformedKernel(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMOOTH_KERNEL", "1,two,1")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoad_RejectsBadBasePeriod(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_PERIOD_START", "next tuesday")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoad_RejectsInvertedDomain(t *testing.T) {
	clearEnv(t)
	t.Setenv("LAT_MIN", "30")
	t.Setenv("LAT_MAX", "-30")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoad_RejectsUnknownSignStrategy(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIGN_STRATEGY", "coin-flip")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestEngineConfig_PipelineConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIGN_STRATEGY", SignEventWindow)

	cfg, err := Load()
	require.NoError(t, err)

	pipeline, err := cfg.Engine.PipelineConfig()
	require.NoError(t, err)

	assert.Equal(t, enso.DefaultDomain, pipeline.Domain)
	assert.Equal(t, "event-window", pipeline.Resolver.Name())
	assert.Equal(t, 3, pipeline.Kernel.Len())

	tr, err := pipeline.Base.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 1979, tr.Lo.Year())
	assert.Equal(t, 2009, tr.Hi.Year())
}
