package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/domain/field"
	apperrors "goenso/internal/errors"
	"goenso/ports"
)

// IndexRepositoryImpl implements IndexRepository for PostgreSQL
type IndexRepositoryImpl struct {
	db *sqlx.DB
}

// NewIndexRepository creates a new PostgreSQL index repository
func NewIndexRepository(db *sqlx.DB) ports.IndexRepository {
	return &IndexRepositoryImpl{db: db}
}

// SaveRun stores the run row and its monthly values in one transaction. The
// values go through COPY; a few hundred months per run is the common case
// but century-long reanalyses arrive as thousands of rows.
func (r *IndexRepositoryImpl) SaveRun(ctx context.Context, run ports.IndexRun) error {
	if run.ID.IsEmpty() {
		return apperrors.InvalidInput("index run needs an id")
	}
	if run.Index.E == nil || run.Index.C == nil {
		return apperrors.InvalidInput("index run holds no series")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO index_runs (id, dataset, fingerprint, created_at)
		VALUES ($1, $2, $3, $4)
	`, run.ID, run.Dataset, run.Fingerprint, run.CreatedAt)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("index_values", "run_id", "month", "e", "c"))
	if err != nil {
		return err
	}

	times := run.Index.E.Times()
	e := run.Index.E.Values()
	c := run.Index.C.Values()
	for i, month := range times {
		if _, err := stmt.ExecContext(ctx, run.ID, month, e[i], c[i]); err != nil {
			stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRun loads one run with its full E and C series.
func (r *IndexRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*ports.IndexRun, error) {
	var row struct {
		ID          string    `db:"id"`
		Dataset     string    `db:"dataset"`
		Fingerprint string    `db:"fingerprint"`
		CreatedAt   time.Time `db:"created_at"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT id, dataset, fingerprint, created_at
		FROM index_runs
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(fmt.Sprintf("index run %s", id))
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT month, e, c
		FROM index_values
		WHERE run_id = $1
		ORDER BY month ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		months []time.Time
		e      []float64
		c      []float64
	)
	for rows.Next() {
		var month time.Time
		var ev, cv float64
		if err := rows.Scan(&month, &ev, &cv); err != nil {
			return nil, err
		}
		months = append(months, month.UTC())
		e = append(e, ev)
		c = append(c, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	index, err := buildIndex(months, e, c)
	if err != nil {
		return nil, err
	}
	return &ports.IndexRun{
		ID:          core.RunID(row.ID),
		Dataset:     row.Dataset,
		Fingerprint: row.Fingerprint,
		CreatedAt:   row.CreatedAt,
		Index:       index,
	}, nil
}

// ListRuns returns stored runs newest first, without their series payloads.
func (r *IndexRepositoryImpl) ListRuns(ctx context.Context, limit, offset int) ([]ports.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.dataset, r.fingerprint, r.created_at, COUNT(v.run_id) AS samples
		FROM index_runs r
		LEFT JOIN index_values v ON v.run_id = r.id
		GROUP BY r.id, r.dataset, r.fingerprint, r.created_at
		ORDER BY r.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ports.RunSummary
	for rows.Next() {
		var s ports.RunSummary
		if err := rows.Scan(&s.ID, &s.Dataset, &s.Fingerprint, &s.CreatedAt, &s.Samples); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// buildIndex reassembles the stored monthly rows into the two index series.
func buildIndex(months []time.Time, e, c []float64) (enso.Index, error) {
	if len(months) == 0 {
		return enso.Index{}, apperrors.InvalidInput("stored run holds no index values")
	}
	ef, err := field.New("E_index", []field.Axis{field.TimeAxis(months)}, e)
	if err != nil {
		return enso.Index{}, err
	}
	cf, err := field.New("C_index", []field.Axis{field.TimeAxis(months)}, c)
	if err != nil {
		return enso.Index{}, err
	}
	return enso.Index{E: ef, C: cf}, nil
}
