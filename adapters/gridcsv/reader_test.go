package gridcsv

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goenso/internal/errors"
	"goenso/ports"
)

func testReader() *Reader {
	return NewReader(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadField_AssemblesSortedGrid(t *testing.T) {
	// Rows arrive shuffled, with a western-hemisphere longitude and one
	// missing cell spelled NA.
	path := writeCSV(t, `time,lat,lon,sst
1996-02,5,-170,24.5
1996-01,-5,120,25.0
1996-01,5,120,26.0
1996-01,-5,-170,27.0
1996-01,5,-170,NA
1996-02,-5,120,23.0
1996-02,5,120,22.0
1996-02,-5,-170,21.0
`)

	f, err := testReader().ReadField(context.Background(), ports.FieldRef{Path: path, Variable: "sst"})
	require.NoError(t, err)

	assert.Equal(t, []string{"time", "lat", "lon"}, f.Dims())
	assert.Equal(t, []int{2, 2, 2}, f.Shape())
	assert.Equal(t, []float64{-5, 5}, f.Coords("lat"))
	assert.Equal(t, []float64{120, 190}, f.Coords("lon"))

	times := f.Times()
	assert.Equal(t, time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(1996, 2, 1, 0, 0, 0, 0, time.UTC), times[1])

	assert.Equal(t, 25.0, f.At(0, 0, 0))
	assert.Equal(t, 27.0, f.At(0, 0, 1))
	assert.True(t, math.IsNaN(f.At(0, 1, 1)))
	assert.Equal(t, 21.0, f.At(1, 0, 1))
	assert.Equal(t, 24.5, f.At(1, 1, 1))
}

func TestReadField_UncoveredCellsStayNaN(t *testing.T) {
	path := writeCSV(t, `time,lat,lon,sst
1996-01,0,120,25.0
1996-01,0,130,26.0
1996-01,2,120,24.0
`)

	f, err := testReader().ReadField(context.Background(), ports.FieldRef{Path: path, Variable: "sst"})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 2}, f.Shape())
	assert.True(t, math.IsNaN(f.At(0, 1, 1)))
}

func TestReadField_FlatSeries(t *testing.T) {
	path := writeCSV(t, `date,value
1996-01-01,1.5
1996-03-01,3.5
1996-02-01,2.5
`)

	f, err := testReader().ReadField(context.Background(), ports.FieldRef{Path: path})
	require.NoError(t, err)

	assert.Equal(t, []string{"time"}, f.Dims())
	assert.Equal(t, "sst", f.Name())
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, f.Values())
}

func TestReadField_DuplicateCellRejected(t *testing.T) {
	path := writeCSV(t, `time,lat,lon,sst
1996-01,0,120,25.0
1996-01,0,120,26.0
`)

	_, err := testReader().ReadField(context.Background(), ports.FieldRef{Path: path, Variable: "sst"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), "duplicate cell")
}

func TestReadField_MalformedValueRejected(t *testing.T) {
	path := writeCSV(t, `time,lat,lon,sst
1996-01,0,120,25.0
1996-02,0,120,warm
`)

	_, err := testReader().ReadField(context.Background(), ports.FieldRef{Path: path, Variable: "sst"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), "row 3")
}

func TestReadField_ColumnValidation(t *testing.T) {
	reader := testReader()
	ctx := context.Background()

	lonless := writeCSV(t, "time,lat,sst\n1996-01,0,25.0\n")
	_, err := reader.ReadField(ctx, ports.FieldRef{Path: lonless, Variable: "sst"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lat and lon columns must appear together")

	timeless := writeCSV(t, "lat,lon,sst\n0,120,25.0\n")
	_, err = reader.ReadField(ctx, ports.FieldRef{Path: timeless, Variable: "sst"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	named := writeCSV(t, "time,lat,lon,sst\n1996-01,0,120,25.0\n")
	_, err = reader.ReadField(ctx, ports.FieldRef{Path: named, Variable: "olr"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestReadField_MissingFile(t *testing.T) {
	_, err := testReader().ReadField(context.Background(), ports.FieldRef{
		Path:     filepath.Join(t.TempDir(), "absent.csv"),
		Variable: "sst",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeSourceError, errors.GetCode(err))
}

func TestReadField_CustomDelimiter(t *testing.T) {
	path := writeCSV(t, "time;lat;lon;sst\n1996-01;0;120;25.0\n")

	reader := NewDelimitedReader(slog.New(slog.NewTextHandler(io.Discard, nil)), ';')
	f, err := reader.ReadField(context.Background(), ports.FieldRef{Path: path, Variable: "sst"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, f.At(0, 0, 0))
}
