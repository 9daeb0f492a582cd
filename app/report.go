package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"goenso/domain/core"
	"goenso/domain/enso"
)

// Report is the summarized output of one engine run: index statistics, the
// classic zone means over the anomaly, and the mode diagnostics.
type Report struct {
	RunID       core.RunID `json:"run_id"`
	Dataset     string     `json:"dataset"`
	Fingerprint string     `json:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at"`

	Samples           int       `json:"samples"`
	ExplainedVariance []float64 `json:"explained_variance"`
	Correction        string    `json:"correction"`
	Alpha             float64   `json:"alpha"`

	E       enso.SeriesStats `json:"e_index"`
	C       enso.SeriesStats `json:"c_index"`
	ESmooth enso.SeriesStats `json:"e_index_smooth"`
	CSmooth enso.SeriesStats `json:"c_index_smooth"`

	Zones map[string]enso.SeriesStats `json:"zones"`
}

// BuildReport runs the derived products of a fitted engine and summarizes
// them. The zone means and the nonlinearity fit are independent, so they
// run concurrently; the first failure cancels the rest.
func BuildReport(ctx context.Context, e *Engine, dataset string) (*Report, error) {
	idx, err := e.ECIndex()
	if err != nil {
		return nil, err
	}
	smooth, err := e.ECIndexSmooth()
	if err != nil {
		return nil, err
	}

	r := &Report{
		RunID:             core.NewID(),
		Dataset:           dataset,
		Fingerprint:       e.Fingerprint(),
		CreatedAt:         time.Now().UTC(),
		Samples:           e.Samples(),
		ExplainedVariance: e.ExplainedVariance(),
		Correction:        e.Correction().String(),
	}
	if r.E, err = enso.Summarize(idx.E); err != nil {
		return nil, err
	}
	if r.C, err = enso.Summarize(idx.C); err != nil {
		return nil, err
	}
	if r.ESmooth, err = enso.Summarize(smooth.E); err != nil {
		return nil, err
	}
	if r.CSmooth, err = enso.Summarize(smooth.C); err != nil {
		return nil, err
	}

	// Zone boxes assume ascending spatial axes; input grids often come
	// north-to-south.
	sorted, err := e.Anomaly().SortBy("lat", "lon")
	if err != nil {
		return nil, err
	}

	zones := enso.Zones()
	zoneStats := make([]enso.SeriesStats, len(zones))
	g, ctx := errgroup.WithContext(ctx)
	for i, zone := range zones {
		i, zone := i, zone
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			zm, err := enso.ZoneMean(sorted, zone)
			if err != nil {
				return err
			}
			zoneStats[i], err = enso.Summarize(zm)
			return err
		})
	}
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		alpha, err := e.Alpha()
		if err != nil {
			return err
		}
		r.Alpha = alpha
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.Zones = make(map[string]enso.SeriesStats, len(zones))
	for i, zone := range zones {
		r.Zones[zone] = zoneStats[i]
	}
	return r, nil
}
