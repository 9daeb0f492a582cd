// Package memory keeps index runs in process memory, for running without a
// database and for tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"goenso/domain/core"
	"goenso/internal/errors"
	"goenso/ports"
)

// IndexRepositoryImpl implements IndexRepository on a mutex-guarded map.
type IndexRepositoryImpl struct {
	mu   sync.RWMutex
	runs map[core.RunID]ports.IndexRun
}

// NewIndexRepository creates an empty in-memory index repository
func NewIndexRepository() *IndexRepositoryImpl {
	return &IndexRepositoryImpl{runs: make(map[core.RunID]ports.IndexRun)}
}

var _ ports.IndexRepository = (*IndexRepositoryImpl)(nil)

// SaveRun stores the run, rejecting duplicate ids.
func (r *IndexRepositoryImpl) SaveRun(ctx context.Context, run ports.IndexRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run.ID.IsEmpty() {
		return errors.InvalidInput("index run needs an id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[run.ID]; exists {
		return errors.InvalidInput(fmt.Sprintf("run %s already stored", run.ID))
	}
	r.runs[run.ID] = run
	return nil
}

// GetRun returns a stored run by id.
func (r *IndexRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*ports.IndexRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("index run %s", id))
	}
	return &run, nil
}

// ListRuns returns stored runs newest first.
func (r *IndexRepositoryImpl) ListRuns(ctx context.Context, limit, offset int) ([]ports.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]ports.RunSummary, 0, len(r.runs))
	for _, run := range r.runs {
		samples := 0
		if run.Index.E != nil {
			samples = run.Index.E.Size()
		}
		summaries = append(summaries, ports.RunSummary{
			ID:          run.ID,
			Dataset:     run.Dataset,
			Fingerprint: run.Fingerprint,
			CreatedAt:   run.CreatedAt,
			Samples:     samples,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	if offset >= len(summaries) {
		return nil, nil
	}
	summaries = summaries[offset:]
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}
