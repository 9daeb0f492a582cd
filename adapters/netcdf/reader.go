// Package netcdf reads gridded sea surface temperature fields from NetCDF
// files into labeled fields, decoding CF-style time units, packed values,
// and fill values along the way.
package netcdf

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"goenso/domain/field"
	"goenso/internal/errors"
	"goenso/ports"
)

// Candidate coordinate variable names, tried in order.
var (
	timeNames = []string{"time", "t"}
	latNames  = []string{"lat", "latitude", "y"}
	lonNames  = []string{"lon", "longitude", "x"}
)

// Reader loads (time, lat, lon) variables from NetCDF datasets. It
// implements ports.FieldSource.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a NetCDF field source.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger}
}

var _ ports.FieldSource = (*Reader)(nil)

// ReadField opens the referenced file and materializes one variable. The
// variable must be laid out (time, lat, lon) after dropping length-1
// dimensions; fill values become NaN and packed values are unscaled.
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

	ds, err := netcdf.OpenFile(ref.Path, netcdf.NOWRITE)
	if err != nil {
		return nil, errors.SourceError(ref.Path, err)
	}
	defer func() { _ = ds.Close() }()

	v, err := ds.Var(ref.Variable)
	if err != nil {
		return nil, errors.NotFound(fmt.Sprintf("variable %q in %s", ref.Variable, ref.Path))
	}

	dims, err := v.Dims()
	if err != nil {
		return nil, errors.SourceError(ref.Path, err)
	}
	kept, err := keepDataDims(dims)
	if err != nil {
		return nil, errors.Wrap(err, "unsupported variable layout")
	}

	times, err := readTimeAxis(ds, kept[0].name)
	if err != nil {
		return nil, errors.Wrap(err, "decoding time axis")
	}
	lats, err := readCoordVar(ds, kept[1].name)
	if err != nil {
		return nil, errors.Wrap(err, "reading latitude axis")
	}
	lons, err := readCoordVar(ds, kept[2].name)
	if err != nil {
		return nil, errors.Wrap(err, "reading longitude axis")
	}
	normalizeLons(lons)
	if len(times) != kept[0].size || len(lats) != kept[1].size || len(lons) != kept[2].size {
		return nil, errors.InvalidInput("coordinate variables disagree with the data dimensions")
	}

	data, err := readValues(v)
	if err != nil {
		return nil, errors.SourceError(ref.Path, err)
	}
	applyPacking(v, data)

	r.logger.Info("netcdf field loaded",
		"path", ref.Path,
		"variable", ref.Variable,
		"samples", len(times),
		"grid", fmt.Sprintf("%dx%d", len(lats), len(lons)))

	wrapped, err := field.New(ref.Variable, []field.Axis{
		field.TimeAxis(times),
		field.NumAxis("lat", lats),
		field.NumAxis("lon", lons),
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "assembling field")
	}
	return wrapped, nil
}

type dataDim struct {
	name string
	size int
}

// keepDataDims drops length-1 dimensions (such as a singleton depth level)
// and checks the remainder is time, lat, lon in that order. Dropping a
// length-1 dimension never changes the flat value order.
func keepDataDims(dims []netcdf.Dim) ([]dataDim, error) {
	kept := make([]dataDim, 0, len(dims))
	for _, d := range dims {
		name, err := d.Name()
		if err != nil {
			return nil, err
		}
		length, err := d.Len()
		if err != nil {
			return nil, err
		}
		if length == 1 && !matches(name, timeNames) && !matches(name, latNames) && !matches(name, lonNames) {
			continue
		}
		kept = append(kept, dataDim{name: name, size: int(length)})
	}
	if len(kept) != 3 || !matches(kept[0].name, timeNames) || !matches(kept[1].name, latNames) || !matches(kept[2].name, lonNames) {
		names := make([]string, len(kept))
		for i, d := range kept {
			names[i] = d.name
		}
		return nil, errors.InvalidInput(fmt.Sprintf("variable must be (time, lat, lon), got %v", names))
	}
	return kept, nil
}

func matches(name string, candidates []string) bool {
	for _, c := range candidates {
		if strings.EqualFold(name, c) {
			return true
		}
	}
	return false
}

// readCoordVar reads a 1-D numeric coordinate variable as float64.
func readCoordVar(ds netcdf.Dataset, name string) ([]float64, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, errors.NotFound(fmt.Sprintf("coordinate variable %q", name))
	}
	return readNumeric1D(v)
}

// normalizeLons maps longitudes into [0, 360) degrees east. A grid stored
// in [-180, 180) comes out unsorted; range selections sort first.
func normalizeLons(lons []float64) {
	for i, v := range lons {
		v = math.Mod(v, 360)
		if v < 0 {
			v += 360
		}
		lons[i] = v
	}
}

// readTimeAxis reads the time coordinate and decodes its CF units
// attribute ("days since 1800-01-01" and friends) into calendar times.
func readTimeAxis(ds netcdf.Dataset, name string) ([]time.Time, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, errors.NotFound(fmt.Sprintf("time variable %q", name))
	}
	raw, err := readNumeric1D(v)
	if err != nil {
		return nil, err
	}
	units, ok := attrString(v, "units")
	if !ok {
		return nil, errors.InvalidInput("time variable carries no units attribute")
	}
	return decodeTimes(raw, units)
}

// decodeTimes converts offsets in "<unit> since <epoch>" form.
func decodeTimes(raw []float64, units string) ([]time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("time units %q are not in '<unit> since <epoch>' form", units))
	}
	unit := strings.ToLower(strings.TrimSpace(parts[0]))
	epoch, err := parseEpoch(parts[1])
	if err != nil {
		return nil, err
	}

	var perUnit float64 // seconds
	switch unit {
	case "seconds", "second", "secs", "sec", "s":
		perUnit = 1
	case "minutes", "minute", "mins", "min":
		perUnit = 60
	case "hours", "hour", "hrs", "hr", "h":
		perUnit = 3600
	case "days", "day", "d":
		perUnit = 86400
	case "months", "month":
		return decodeMonths(raw, epoch)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported time unit %q", unit))
	}

	out := make([]time.Time, len(raw))
	for i, v := range raw {
		ms := math.Round(v * perUnit * 1000)
		out[i] = epoch.Add(time.Duration(ms) * time.Millisecond)
	}
	return out, nil
}

// decodeMonths handles calendar-month offsets, which have no fixed length
// in seconds. Offsets must be whole months.
func decodeMonths(raw []float64, epoch time.Time) ([]time.Time, error) {
	out := make([]time.Time, len(raw))
	for i, v := range raw {
		n := math.Round(v)
		if math.Abs(v-n) > 1e-6 {
			return nil, errors.InvalidInput(fmt.Sprintf("fractional month offset %g is not supported", v))
		}
		out[i] = epoch.AddDate(0, int(n), 0)
	}
	return out, nil
}

var epochLayouts = []string{
	"2006-1-2 15:4:5.999999999",
	"2006-1-2T15:4:5.999999999Z",
	"2006-1-2T15:4:5.999999999",
	"2006-1-2 15:4",
	"2006-1-2",
}

func parseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range epochLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, errors.InvalidInput(fmt.Sprintf("cannot parse time epoch %q", s))
}

// readNumeric1D reads a 1-D variable of any common numeric type.
func readNumeric1D(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("expected a 1-D coordinate, got %d dimensions", len(dims)))
	}
	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	return readAs(v, int(length))
}

// readValues reads the full data variable as float64, whatever its
// on-disk numeric type.
func readValues(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, err
	}
	size := 1
	for _, d := range dims {
		length, err := d.Len()
		if err != nil {
			return nil, err
		}
		size *= int(length)
	}
	return readAs(v, size)
}

func readAs(v netcdf.Var, size int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, err
	}
	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, size)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, size)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, size)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, size)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, size)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.SHORT:
		tmp := make([]int16, size)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, size)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported variable type %v", t))
	}
}

// applyPacking replaces fill values with NaN and applies the CF
// scale_factor and add_offset attributes when present. Fill values are
// compared before unpacking, as the convention requires.
func applyPacking(v netcdf.Var, data []float64) {
	fill, hasFill := attrNumber(v, "_FillValue")
	missing, hasMissing := attrNumber(v, "missing_value")
	scale, hasScale := attrNumber(v, "scale_factor")
	offset, hasOffset := attrNumber(v, "add_offset")

	for i, val := range data {
		if (hasFill && val == fill) || (hasMissing && val == missing) {
			data[i] = math.NaN()
			continue
		}
		if hasScale {
			val = val * scale
		}
		if hasOffset {
			val = val + offset
		}
		data[i] = val
	}
}

// attrNumber returns a numeric attribute as float64 if present.
func attrNumber(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	if a == (netcdf.Attr{}) {
		return 0, false
	}
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi32 := make([]int32, 1)
	if err := a.ReadInt32s(bufi32); err == nil {
		return float64(bufi32[0]), true
	}
	bufi16 := make([]int16, 1)
	if err := a.ReadInt16s(bufi16); err == nil {
		return float64(bufi16[0]), true
	}
	return 0, false
}

// attrString returns a text attribute if present.
func attrString(v netcdf.Var, name string) (string, bool) {
	a := v.Attr(name)
	if a == (netcdf.Attr{}) {
		return "", false
	}
	n, err := a.Len()
	if err != nil || n == 0 {
		return "", false
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", false
	}
	return strings.TrimRight(string(buf), "\x00"), true
}
