package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"goenso/internal/errors"
	"goenso/ports"
)

// IndexWriter exports a computed E/C index run to a spreadsheet or CSV file,
// picked by the destination's extension. It implements ports.IndexWriter.
type IndexWriter struct {
	path     string
	fileType string // "xlsx" or "csv"
	logger   *slog.Logger
}

// NewIndexWriter creates a writer for the given destination. A .csv
// extension selects plain CSV; everything else is written as xlsx.
func NewIndexWriter(path string, logger *slog.Logger) *IndexWriter {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		fileType = "csv"
	}
	return &IndexWriter{path: path, fileType: fileType, logger: logger}
}

var _ ports.IndexWriter = (*IndexWriter)(nil)

// WriteIndex writes one row per month with the E and C values. The xlsx
// variant adds a Run sheet carrying the run's identity and fingerprint.
func (w *IndexWriter) WriteIndex(ctx context.Context, run ports.IndexRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run.Index.E == nil || run.Index.C == nil {
		return errors.InvalidInput("index run holds no series")
	}

	var err error
	switch w.fileType {
	case "csv":
		err = w.writeCSV(run)
	default:
		err = w.writeXLSX(run)
	}
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("exporting index to %s", w.path))
	}

	w.logger.Info("index exported",
		"path", w.path,
		"format", w.fileType,
		"run_id", run.ID.String(),
		"samples", run.Index.E.Size())
	return nil
}

func (w *IndexWriter) writeCSV(run ports.IndexRun) error {
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"month", "e", "c"}); err != nil {
		return err
	}
	times := run.Index.E.Times()
	e := run.Index.E.Values()
	c := run.Index.C.Values()
	for i, t := range times {
		record := []string{t.Format("2006-01"), formatValue(e[i]), formatValue(c[i])}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *IndexWriter) writeXLSX(run ports.IndexRun) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	headers := []string{"month", "e", "c"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	times := run.Index.E.Times()
	e := run.Index.E.Values()
	c := run.Index.C.Values()
	for i, t := range times {
		rowIdx := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetCellValue(sheet, cell, t.Format("2006-01")); err != nil {
			return err
		}
		if err := setNumericCell(f, sheet, 2, rowIdx, e[i]); err != nil {
			return err
		}
		if err := setNumericCell(f, sheet, 3, rowIdx, c[i]); err != nil {
			return err
		}
	}

	if err := writeRunSheet(f, run); err != nil {
		return err
	}
	return f.SaveAs(w.path)
}

// writeRunSheet records the run's identity so an exported file can be traced
// back to the configuration that produced it.
func writeRunSheet(f *excelize.File, run ports.IndexRun) error {
	sheet := "Run"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]string{
		{"id", run.ID.String()},
		{"dataset", run.Dataset},
		{"fingerprint", run.Fingerprint},
		{"created_at", run.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")},
		{"samples", strconv.Itoa(run.Index.E.Size())},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// setNumericCell writes a native numeric cell, leaving NaN cells empty.
func setNumericCell(f *excelize.File, sheet string, col, row int, v float64) error {
	if math.IsNaN(v) {
		return nil
	}
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return f.SetCellValue(sheet, cell, v)
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
