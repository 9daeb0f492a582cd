package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "goenso/internal/errors"
)

func TestBuildIndex_ReassemblesSeries(t *testing.T) {
	months := []time.Time{
		time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1996, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1996, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	index, err := buildIndex(months, []float64{0.5, -0.25, 1.75}, []float64{-1.5, 0.75, 2.25})
	require.NoError(t, err)

	assert.Equal(t, "E_index", index.E.Name())
	assert.Equal(t, "C_index", index.C.Name())
	assert.Equal(t, months, index.E.Times())
	assert.Equal(t, []float64{0.5, -0.25, 1.75}, index.E.Values())
	assert.Equal(t, []float64{-1.5, 0.75, 2.25}, index.C.Values())
}

func TestBuildIndex_RejectsEmptyRun(t *testing.T) {
	_, err := buildIndex(nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
