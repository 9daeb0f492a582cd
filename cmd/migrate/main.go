// The migrate binary applies the database schema and optionally re-imports
// previously exported index CSV files as stored runs, for rebuilding a
// database from flat-file exports.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"goenso/adapters/postgres"
	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/domain/field"
	"goenso/internal/migration"
	"goenso/ports"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [export-dir]")
	}

	databaseURL := os.Args[1]
	ctx := context.Background()

	db, err := postgres.Connect(ctx, databaseURL, postgres.Pool{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Printf("Schema version %s applied", runner.Version())

	if len(os.Args) < 3 {
		return
	}
	exportDir := os.Args[2]

	files, err := findIndexFiles(exportDir)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", exportDir, err)
	}
	log.Printf("Found %d index files to import", len(files))

	repo := postgres.NewIndexRepository(db)
	imported := 0
	skipped := 0
	for _, file := range files {
		run, err := loadRunFromFile(file)
		if err != nil {
			log.Printf("Skipping %s: %v", file, err)
			skipped++
			continue
		}
		if err := repo.SaveRun(ctx, run); err != nil {
			log.Printf("Failed to store %s: %v", file, err)
			skipped++
			continue
		}
		log.Printf("Imported %s as run %s (%d months)", filepath.Base(file), run.ID, run.Index.E.Size())
		imported++
	}
	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

// findIndexFiles lists CSV files under dir, non-recursively. Exports land
// flat in the export directory.
func findIndexFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// loadRunFromFile parses an exported month,e,c series back into a run. The
// dataset label is taken from the file name; the original fingerprint is
// not recoverable from the export.
func loadRunFromFile(path string) (ports.IndexRun, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.IndexRun{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return ports.IndexRun{}, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < 3 || !strings.EqualFold(header[0], "month") {
		return ports.IndexRun{}, fmt.Errorf("not an index export, header %v", header)
	}

	var months []time.Time
	var e, c []float64
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ports.IndexRun{}, err
		}
		ts, err := time.Parse("2006-01", record[0])
		if err != nil {
			return ports.IndexRun{}, fmt.Errorf("month %q: %w", record[0], err)
		}
		months = append(months, ts)
		e = append(e, parseValue(record[1]))
		c = append(c, parseValue(record[2]))
	}
	if len(months) == 0 {
		return ports.IndexRun{}, fmt.Errorf("export holds no rows")
	}

	eField, err := field.New("E_index", []field.Axis{field.TimeAxis(months)}, e)
	if err != nil {
		return ports.IndexRun{}, err
	}
	cField, err := field.New("C_index", []field.Axis{field.TimeAxis(months)}, c)
	if err != nil {
		return ports.IndexRun{}, err
	}

	dataset := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ports.IndexRun{
		ID:          core.NewID(),
		Dataset:     dataset,
		Fingerprint: "imported",
		CreatedAt:   time.Now().UTC(),
		Index:       enso.Index{E: eField, C: cField},
	}, nil
}

func parseValue(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
