// The api binary serves the index pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"goenso/adapters/api"
	"goenso/adapters/gridcsv"
	"goenso/adapters/memory"
	"goenso/adapters/netcdf"
	"goenso/adapters/postgres"
	"goenso/internal/config"
	"goenso/internal/migration"
	"goenso/internal/observability"
	"goenso/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger()
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, cleanup, err := initRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("repository init failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv, err := api.NewServer(cfg, api.Deps{
		NetCDF:  netcdf.NewReader(logger),
		CSV:     gridcsv.NewReader(logger),
		Repo:    repo,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("server init failed", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// initRepository connects Postgres when a DATABASE_URL is configured and
// falls back to process memory otherwise.
func initRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.IndexRepository, func(), error) {
	if cfg.Database.URL == "" {
		logger.Info("no DATABASE_URL set, keeping runs in memory")
		return memory.NewIndexRepository(), func() {}, nil
	}

	db, err := postgres.Connect(ctx, cfg.Database.URL, postgres.Pool{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	logger.Info("postgres connected", "max_open_conns", cfg.Database.MaxOpenConns)
	return postgres.NewIndexRepository(db), func() { _ = db.Close() }, nil
}
