package enso

import (
	"math"

	"github.com/montanaflynn/stats"

	"goenso/domain/core"
	"goenso/domain/field"
)

// SeriesStats summarizes a time-indexed scalar series for bulletins and API
// payloads. NaN samples are excluded before summarizing.
type SeriesStats struct {
	Name    string  `json:"name"`
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Median  float64 `json:"median"`
	Last    float64 `json:"last"`
}

// Summarize computes descriptive statistics of a 1-D series.
func Summarize(series *field.Field) (SeriesStats, error) {
	if series.NDim() != 1 {
		return SeriesStats{}, core.NewInvalidArgumentErrorf("summary needs a 1-D series, got %d axes", series.NDim())
	}

	finite := make([]float64, 0, series.Size())
	last := math.NaN()
	for _, v := range series.Values() {
		if math.IsNaN(v) {
			continue
		}
		finite = append(finite, v)
		last = v
	}
	if len(finite) == 0 {
		return SeriesStats{}, core.NewInvalidArgumentError("series has no finite samples")
	}

	out := SeriesStats{Name: series.Name(), Samples: len(finite), Last: last}

	mean, err := stats.Mean(finite)
	if err != nil {
		return SeriesStats{}, err
	}
	out.Mean = mean

	if len(finite) > 1 {
		stdDev, err := stats.StandardDeviationSample(finite)
		if err != nil {
			return SeriesStats{}, err
		}
		out.StdDev = stdDev
	}

	min, err := stats.Min(finite)
	if err != nil {
		return SeriesStats{}, err
	}
	out.Min = min

	max, err := stats.Max(finite)
	if err != nil {
		return SeriesStats{}, err
	}
	out.Max = max

	median, err := stats.Median(finite)
	if err != nil {
		return SeriesStats{}, err
	}
	out.Median = median

	return out, nil
}
