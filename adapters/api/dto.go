package api

import (
	"time"

	"goenso/app"
	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/internal/config"
)

// computeRequest references the dataset to run the pipeline on. Empty
// fields fall back to the configured defaults.
type computeRequest struct {
	Path     string `json:"path"`
	Variable string `json:"variable"`
	Dataset  string `json:"dataset"`
}

func (r *computeRequest) applyDefaults(d config.DataConfig) {
	if r.Path == "" {
		r.Path = d.SSTFile
	}
	if r.Variable == "" {
		r.Variable = d.Variable
	}
	if r.Dataset == "" {
		r.Dataset = d.Dataset
	}
}

// seriesPayload carries the monthly E and C values of one run.
type seriesPayload struct {
	Months []string  `json:"months"`
	E      []float64 `json:"e"`
	C      []float64 `json:"c"`
}

type computeResponse struct {
	Report *app.Report   `json:"report"`
	Index  seriesPayload `json:"index"`
}

type zoneResponse struct {
	Zone   string           `json:"zone"`
	Months []string         `json:"months"`
	Values []float64        `json:"values"`
	Stats  enso.SeriesStats `json:"stats"`
}

type runResponse struct {
	ID          core.RunID    `json:"id"`
	Dataset     string        `json:"dataset"`
	Fingerprint string        `json:"fingerprint"`
	CreatedAt   time.Time     `json:"created_at"`
	Index       seriesPayload `json:"index"`
}

func indexPayload(idx enso.Index) seriesPayload {
	return seriesPayload{
		Months: formatMonths(idx.E.Times()),
		E:      idx.E.Values(),
		C:      idx.C.Values(),
	}
}

func formatMonths(times []time.Time) []string {
	months := make([]string, len(times))
	for i, t := range times {
		months[i] = t.Format("2006-01")
	}
	return months
}
