package ports

import (
	"context"
	"time"

	"goenso/domain/core"
	"goenso/domain/enso"
)

// IndexRun is one computed E/C index result together with the configuration
// fingerprint that produced it.
type IndexRun struct {
	ID          core.RunID `json:"id"`
	Dataset     string     `json:"dataset"`
	Fingerprint string     `json:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at"`
	Index       enso.Index `json:"-"`
}

// RunSummary lists a stored run without its series payload.
type RunSummary struct {
	ID          core.RunID `json:"id"`
	Dataset     string     `json:"dataset"`
	Fingerprint string     `json:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at"`
	Samples     int        `json:"samples"`
}

// IndexRepository stores computed index runs.
type IndexRepository interface {
	SaveRun(ctx context.Context, run IndexRun) error
	GetRun(ctx context.Context, id core.RunID) (*IndexRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]RunSummary, error)
}

// IndexWriter exports a computed run to an external format (spreadsheet,
// CSV). Writers are one-shot; the destination is fixed at construction.
type IndexWriter interface {
	WriteIndex(ctx context.Context, run IndexRun) error
}
