// Package gridcsv reads sea surface temperature observations from tidy CSV
// files, one cell per row, and assembles them into labeled fields. It accepts
// full (time, lat, lon) grids as well as flat (time, value) series.
package gridcsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"goenso/domain/field"
	"goenso/internal/errors"
	"goenso/ports"
)

// Candidate header names, matched case-insensitively.
var (
	timeColumns = []string{"time", "date", "month"}
	latColumns  = []string{"lat", "latitude"}
	lonColumns  = []string{"lon", "longitude"}
)

// timeLayouts are tried in order; non-padded layouts also accept padded input.
var timeLayouts = []string{
	time.RFC3339,
	"2006-1-2 15:4:5",
	"2006-1-2",
	"2006/1/2",
	"2006-1",
	"2006",
}

// Reader loads tidy CSV datasets. Rows may arrive in any order; cells the
// file never mentions stay NaN, which is how land points are usually
// published. It implements ports.FieldSource.
type Reader struct {
	logger *slog.Logger
	comma  rune
}

// NewReader creates a comma-delimited CSV field source.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger, comma: ','}
}

// NewDelimitedReader creates a CSV field source with a custom delimiter,
// for semicolon or tab exports.
func NewDelimitedReader(logger *slog.Logger, comma rune) *Reader {
	return &Reader{logger: logger, comma: comma}
}

var _ ports.FieldSource = (*Reader)(nil)

type observation struct {
	stamp time.Time
	lat   float64
	lon   float64
	value float64
}

// ReadField parses the referenced file and materializes one variable. A file
// with lat and lon columns yields a (time, lat, lon) grid with coordinates
// sorted ascending and longitudes mapped into [0, 360); a file without them
// yields a plain time series.
func (r *Reader) ReadField(ctx context.Context, ref ports.FieldRef) (*field.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref.Path == "" {
		return nil, errors.InvalidInput("field reference needs a file path")
	}
	if ref.Variable == "" {
		ref.Variable = "sst"
	}

	f, err := os.Open(ref.Path)
	if err != nil {
		return nil, errors.SourceError(ref.Path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = r.comma
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.SourceError(ref.Path, fmt.Errorf("reading header row: %w", err))
	}

	cols, err := locateColumns(header, ref.Variable)
	if err != nil {
		return nil, err
	}

	obs, err := parseRows(cr, cols)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("parsing %s", ref.Path))
	}
	if len(obs) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s holds no data rows", ref.Path))
	}

	var out *field.Field
	if cols.gridded() {
		out, err = assembleGrid(ref.Variable, obs)
	} else {
		out, err = assembleSeries(ref.Variable, obs)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Info("csv field loaded",
		"path", ref.Path,
		"variable", ref.Variable,
		"rows", len(obs),
		"shape", fmt.Sprintf("%v", out.Shape()))
	return out, nil
}

type columnSet struct {
	stamp int
	lat   int
	lon   int
	value int
}

func (c columnSet) gridded() bool { return c.lat >= 0 && c.lon >= 0 }

// locateColumns maps header names to indices. The value column must match
// the requested variable, or be called "value"; lat and lon are optional but
// only together.
func locateColumns(header []string, variable string) (columnSet, error) {
	cols := columnSet{stamp: -1, lat: -1, lon: -1, value: -1}
	fallback := -1
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case name == strings.ToLower(variable):
			cols.value = i
		case name == "value":
			fallback = i
		case cols.stamp < 0 && contains(timeColumns, name):
			cols.stamp = i
		case cols.lat < 0 && contains(latColumns, name):
			cols.lat = i
		case cols.lon < 0 && contains(lonColumns, name):
			cols.lon = i
		}
	}
	if cols.value < 0 {
		cols.value = fallback
	}
	if cols.value < 0 {
		return cols, errors.NotFound(fmt.Sprintf("column %q", variable))
	}
	if cols.stamp < 0 {
		return cols, errors.InvalidInput("no time column found (expected one of time, date, month)")
	}
	if (cols.lat >= 0) != (cols.lon >= 0) {
		return cols, errors.InvalidInput("lat and lon columns must appear together")
	}
	return cols, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// parseRows reads every record, converting stamps, coordinates, and values.
// A malformed number is an error rather than a skipped row; one silently
// dropped cell would shift every statistic built on the grid.
func parseRows(cr *csv.Reader, cols columnSet) ([]observation, error) {
	var obs []observation
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row++

		o := observation{}
		o.stamp, err = parseStamp(record[cols.stamp])
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: %v", row, err))
		}
		if cols.gridded() {
			o.lat, err = parseCoord(record[cols.lat])
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("row %d: latitude: %v", row, err))
			}
			o.lon, err = parseCoord(record[cols.lon])
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("row %d: longitude: %v", row, err))
			}
			o.lon = normalizeLon(o.lon)
		}
		o.value, err = parseValue(record[cols.value])
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: %v", row, err))
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func parseStamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable coordinate %q", s)
	}
	return v, nil
}

// parseValue treats the usual empty-cell spellings as NaN.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable value %q", s)
	}
	return v, nil
}

func normalizeLon(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v
}

// assembleGrid builds a dense (time, lat, lon) field from the unique
// coordinates the rows mention. Cells no row covers stay NaN.
func assembleGrid(name string, obs []observation) (*field.Field, error) {
	times, timeIdx := uniqueStamps(obs)
	lats, latIdx := uniqueCoords(obs, func(o observation) float64 { return o.lat })
	lons, lonIdx := uniqueCoords(obs, func(o observation) float64 { return o.lon })

	nt, ny, nx := len(times), len(lats), len(lons)
	data := make([]float64, nt*ny*nx)
	for i := range data {
		data[i] = math.NaN()
	}
	seen := make([]bool, len(data))
	for _, o := range obs {
		off := (timeIdx[o.stamp.Unix()]*ny+latIdx[o.lat])*nx + lonIdx[o.lon]
		if seen[off] {
			return nil, errors.InvalidInput(fmt.Sprintf(
				"duplicate cell at %s lat=%g lon=%g", o.stamp.Format("2006-01-02"), o.lat, o.lon))
		}
		seen[off] = true
		data[off] = o.value
	}

	return field.New(name, []field.Axis{
		field.TimeAxis(times),
		field.NumAxis("lat", lats),
		field.NumAxis("lon", lons),
	}, data)
}

// assembleSeries builds a plain time series; every stamp may appear once.
func assembleSeries(name string, obs []observation) (*field.Field, error) {
	times, timeIdx := uniqueStamps(obs)
	data := make([]float64, len(times))
	seen := make([]bool, len(times))
	for _, o := range obs {
		i := timeIdx[o.stamp.Unix()]
		if seen[i] {
			return nil, errors.InvalidInput(fmt.Sprintf(
				"duplicate sample at %s", o.stamp.Format("2006-01-02")))
		}
		seen[i] = true
		data[i] = o.value
	}
	return field.New(name, []field.Axis{field.TimeAxis(times)}, data)
}

func uniqueStamps(obs []observation) ([]time.Time, map[int64]int) {
	set := make(map[int64]time.Time)
	for _, o := range obs {
		set[o.stamp.Unix()] = o.stamp
	}
	keys := make([]int64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	times := make([]time.Time, len(keys))
	index := make(map[int64]int, len(keys))
	for i, k := range keys {
		times[i] = set[k]
		index[k] = i
	}
	return times, index
}

func uniqueCoords(obs []observation, pick func(observation) float64) ([]float64, map[float64]int) {
	set := make(map[float64]struct{})
	for _, o := range obs {
		set[pick(o)] = struct{}{}
	}
	coords := make([]float64, 0, len(set))
	for c := range set {
		coords = append(coords, c)
	}
	sort.Float64s(coords)

	index := make(map[float64]int, len(coords))
	for i, c := range coords {
		index[c] = i
	}
	return coords, index
}
