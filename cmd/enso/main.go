// The enso binary runs the index pipeline from the command line: computing
// E and C indices from a gridded SST file, reporting zone anomalies, and
// rendering bulletins without starting the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"goenso/adapters/excel"
	"goenso/adapters/gridcsv"
	"goenso/adapters/netcdf"
	"goenso/adapters/postgres"
	"goenso/app"
	"goenso/domain/enso"
	"goenso/domain/field"
	"goenso/internal/bulletin"
	"goenso/internal/config"
	"goenso/internal/migration"
	"goenso/internal/observability"
	"goenso/ports"
)

func main() {
	// A .env file is optional for the CLI; flags and environment win.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "enso",
		Short: "ENSO diagnostic index pipeline",
		Long: `Compute E and C indices from gridded sea surface temperature.

The input may be NetCDF or tidy CSV; the format is picked by file
extension. Engine defaults (base period, analysis domain, smoothing
kernel, sign strategy) come from the environment, see config.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newComputeCmd(),
		newZonesCmd(),
		newBulletinCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newComputeCmd() *cobra.Command {
	var variable string
	var dataset string
	var export string
	var persist bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compute [data-file]",
		Short: "Compute the E and C indices and summarize the run",
		Long: `Compute the E and C indices from a gridded SST file.

Without an argument the SST_FILE environment variable names the input.

Example: enso compute ersstv5.nc --dataset ersstv5 --export index.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runCompute(cmd.Context(), input, variable, dataset, export, persist, asJSON)
		},
	}

	cmd.Flags().StringVar(&variable, "variable", "", "Grid variable to read (default: SST_VARIABLE)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset label stored with the run (default: DATASET_NAME)")
	cmd.Flags().StringVar(&export, "export", "", "Export the monthly index to this .xlsx or .csv file")
	cmd.Flags().BoolVar(&persist, "persist", false, "Store the run in Postgres (requires DATABASE_URL)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func newZonesCmd() *cobra.Command {
	var variable string
	var zone string
	var djf bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "zones [data-file]",
		Short: "Report Niño zone anomaly means",
		Long: `Average the SST anomaly over the classic Niño zones.

With --zone only the named zone is reported; --djf averages each zone
series over December-February seasons, labeled by the January year.

Example: enso zones ersstv5.nc --zone nino34 --djf`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runZones(cmd.Context(), input, variable, zone, djf, asJSON)
		},
	}

	cmd.Flags().StringVar(&variable, "variable", "", "Grid variable to read (default: SST_VARIABLE)")
	cmd.Flags().StringVar(&zone, "zone", "", "Report a single zone: "+strings.Join(enso.Zones(), ", "))
	cmd.Flags().BoolVar(&djf, "djf", false, "Average over December-February seasons")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print zone statistics as JSON")

	return cmd
}

func newBulletinCmd() *cobra.Command {
	var variable string
	var dataset string
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "bulletin [data-file]",
		Short: "Render a diagnostic bulletin for one run",
		Long: `Compute a full run and render it as a diagnostic bulletin.

Example: enso bulletin ersstv5.nc --format html -o bulletin.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runBulletin(cmd.Context(), input, variable, dataset, format, output)
		},
	}

	cmd.Flags().StringVar(&variable, "variable", "", "Grid variable to read (default: SST_VARIABLE)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset label for the bulletin (default: DATASET_NAME)")
	cmd.Flags().StringVar(&format, "format", "markdown", "Bulletin format: markdown or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the bulletin to this file (default: stdout)")

	return cmd
}

func runCompute(ctx context.Context, input, variable, dataset, export string, persist, asJSON bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	input, variable, dataset = applyDataDefaults(cfg, input, variable, dataset)
	if input == "" {
		return fmt.Errorf("no data file given and SST_FILE is unset")
	}

	logger := observability.NewLogger()
	engine, err := buildEngine(ctx, cfg, logger, input, variable)
	if err != nil {
		return err
	}
	report, err := app.BuildReport(ctx, engine, dataset)
	if err != nil {
		return err
	}
	idx, err := engine.ECIndex()
	if err != nil {
		return err
	}
	run := ports.IndexRun{
		ID:          report.RunID,
		Dataset:     report.Dataset,
		Fingerprint: report.Fingerprint,
		CreatedAt:   report.CreatedAt,
		Index:       idx,
	}

	if persist {
		if err := persistRun(ctx, cfg, run); err != nil {
			return fmt.Errorf("persisting run failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Run %s stored\n", run.ID)
	}
	if export != "" {
		if err := excel.NewIndexWriter(export, logger).WriteIndex(ctx, run); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Index exported to %s\n", export)
	}

	if asJSON {
		return printJSON(report)
	}
	printReport(report)
	return nil
}

func runZones(ctx context.Context, input, variable, zone string, djf, asJSON bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	input, variable, _ = applyDataDefaults(cfg, input, variable, "")
	if input == "" {
		return fmt.Errorf("no data file given and SST_FILE is unset")
	}

	zones := enso.Zones()
	if zone != "" {
		if _, err := enso.ZoneBox(zone); err != nil {
			return err
		}
		zones = []string{zone}
	}

	logger := observability.NewLogger()
	engine, err := buildEngine(ctx, cfg, logger, input, variable)
	if err != nil {
		return err
	}
	// Zone boxes assume ascending spatial axes.
	sorted, err := engine.Anomaly().SortBy("lat", "lon")
	if err != nil {
		return err
	}

	stats := make([]enso.SeriesStats, 0, len(zones))
	seasonal := make(map[string]map[int]float64, len(zones))
	for _, z := range zones {
		zm, err := enso.ZoneMean(sorted, z)
		if err != nil {
			return err
		}
		if djf {
			zm, err = app.DJFMeans(zm)
			if err != nil {
				return err
			}
			seasonal[z] = seasonByYear(zm)
		}
		s, err := enso.Summarize(zm)
		if err != nil {
			return err
		}
		s.Name = z
		stats = append(stats, s)
	}

	if asJSON {
		return printJSON(stats)
	}

	fmt.Printf("=== ZONE ANOMALIES ===\n")
	if djf {
		fmt.Printf("December-February seasonal means, labeled by January year.\n")
	}
	fmt.Printf("%-8s %8s %8s %8s %8s %8s %8s\n", "Zone", "Samples", "Mean", "Std", "Min", "Max", "Last")
	for _, s := range stats {
		fmt.Printf("%-8s %8d %8.3f %8.3f %8.3f %8.3f %8.3f\n",
			s.Name, s.Samples, s.Mean, s.StdDev, s.Min, s.Max, s.Last)
	}
	if djf && zone != "" {
		printSeasons(zone, seasonal[zone])
	}
	return nil
}

func runBulletin(ctx context.Context, input, variable, dataset, format, output string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	input, variable, dataset = applyDataDefaults(cfg, input, variable, dataset)
	if input == "" {
		return fmt.Errorf("no data file given and SST_FILE is unset")
	}

	logger := observability.NewLogger()
	engine, err := buildEngine(ctx, cfg, logger, input, variable)
	if err != nil {
		return err
	}
	report, err := app.BuildReport(ctx, engine, dataset)
	if err != nil {
		return err
	}

	var rendered []byte
	switch format {
	case "markdown":
		rendered = []byte(bulletin.Render(report))
	case "html":
		rendered = bulletin.RenderHTML(report)
	default:
		return fmt.Errorf("invalid format: %s (expected markdown|html)", format)
	}

	if output == "" {
		fmt.Print(string(rendered))
		return nil
	}
	if err := os.WriteFile(output, rendered, 0644); err != nil {
		return fmt.Errorf("writing bulletin failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Bulletin saved to %s\n", output)
	return nil
}

// buildEngine loads the referenced grid and fits the decomposition. The
// source adapter is picked by file extension.
func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, input, variable string) (*app.Engine, error) {
	var source ports.FieldSource = netcdf.NewReader(logger)
	if strings.EqualFold(filepath.Ext(input), ".csv") {
		source = gridcsv.NewReader(logger)
	}
	f, err := source.ReadField(ctx, ports.FieldRef{Path: input, Variable: variable})
	if err != nil {
		return nil, err
	}
	pipeline, err := cfg.Engine.PipelineConfig()
	if err != nil {
		return nil, err
	}
	return app.NewEngine(f, pipeline)
}

func persistRun(ctx context.Context, cfg *config.Config, run ports.IndexRun) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := postgres.Connect(ctx, cfg.Database.URL, postgres.Pool{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return err
	}
	return postgres.NewIndexRepository(db).SaveRun(ctx, run)
}

func applyDataDefaults(cfg *config.Config, input, variable, dataset string) (string, string, string) {
	if input == "" {
		input = cfg.Data.SSTFile
	}
	if variable == "" {
		variable = cfg.Data.Variable
	}
	if dataset == "" {
		dataset = cfg.Data.Dataset
	}
	return input, variable, dataset
}

func printReport(r *app.Report) {
	fmt.Printf("=== INDEX RUN ===\n")
	fmt.Printf("Run ID:      %s\n", r.RunID)
	fmt.Printf("Dataset:     %s\n", r.Dataset)
	fmt.Printf("Fingerprint: %s\n", r.Fingerprint)
	fmt.Printf("Samples:     %d\n", r.Samples)
	if len(r.ExplainedVariance) >= 2 {
		fmt.Printf("Explained:   mode 0 %.1f%%, mode 1 %.1f%%\n",
			100*r.ExplainedVariance[0], 100*r.ExplainedVariance[1])
	}
	fmt.Printf("Correction:  %s\n", r.Correction)
	fmt.Printf("Alpha (DJF): %.3f\n", r.Alpha)

	fmt.Printf("\n=== INDEX SERIES ===\n")
	fmt.Printf("%-14s %8s %8s %8s %8s %8s %8s\n", "Series", "Samples", "Mean", "Std", "Min", "Max", "Last")
	printStatsRow("E", r.E)
	printStatsRow("C", r.C)
	printStatsRow("E (smoothed)", r.ESmooth)
	printStatsRow("C (smoothed)", r.CSmooth)

	fmt.Printf("\n=== ZONE ANOMALIES ===\n")
	fmt.Printf("%-8s %8s %8s %8s %8s\n", "Zone", "Samples", "Mean", "Std", "Last")
	for _, zone := range enso.Zones() {
		s, ok := r.Zones[zone]
		if !ok {
			continue
		}
		fmt.Printf("%-8s %8d %8.3f %8.3f %8.3f\n", zone, s.Samples, s.Mean, s.StdDev, s.Last)
	}
}

func printStatsRow(label string, s enso.SeriesStats) {
	fmt.Printf("%-14s %8d %8.3f %8.3f %8.3f %8.3f %8.3f\n",
		label, s.Samples, s.Mean, s.StdDev, s.Min, s.Max, s.Last)
}

// seasonByYear flattens a year-indexed series into a map for printing.
func seasonByYear(f *field.Field) map[int]float64 {
	out := make(map[int]float64, f.Size())
	years := f.Coords("year")
	values := f.Values()
	for i, y := range years {
		out[int(y)] = values[i]
	}
	return out
}

func printSeasons(zone string, seasons map[int]float64) {
	years := make([]int, 0, len(seasons))
	for y := range seasons {
		years = append(years, y)
	}
	sort.Ints(years)

	fmt.Printf("\n=== %s DJF SEASONS ===\n", strings.ToUpper(zone))
	for _, y := range years {
		fmt.Printf("%d  %8.3f\n", y, seasons[y])
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
