package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/domain/field"
	"goenso/internal/errors"
	"goenso/ports"
)

func storedRun(t *testing.T, createdAt time.Time) ports.IndexRun {
	t.Helper()
	times := []time.Time{
		time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1996, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	return ports.IndexRun{
		ID:          core.NewID(),
		Dataset:     "synthetic-pacific",
		Fingerprint: "deadbeef01234567",
		CreatedAt:   createdAt,
		Index: enso.Index{
			E: field.MustNew("E_index", []field.Axis{field.TimeAxis(times)}, []float64{0.5, -0.5}),
			C: field.MustNew("C_index", []field.Axis{field.TimeAxis(times)}, []float64{0.25, -0.25}),
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	repo := NewIndexRepository()
	ctx := context.Background()
	run := storedRun(t, time.Now())

	require.NoError(t, repo.SaveRun(ctx, run))

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Fingerprint, got.Fingerprint)
	assert.Equal(t, run.Index.E.Values(), got.Index.E.Values())

	err = repo.SaveRun(ctx, run)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestGetRun_Unknown(t *testing.T) {
	repo := NewIndexRepository()

	_, err := repo.GetRun(context.Background(), core.NewID())
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestListRuns_NewestFirstWithPaging(t *testing.T) {
	repo := NewIndexRepository()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	var ids []core.RunID
	for i := 0; i < 3; i++ {
		run := storedRun(t, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.SaveRun(ctx, run))
		ids = append(ids, run.ID)
	}

	all, err := repo.ListRuns(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)
	assert.Equal(t, 2, all[0].Samples)

	page, err := repo.ListRuns(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)

	empty, err := repo.ListRuns(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
