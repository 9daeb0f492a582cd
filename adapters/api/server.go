// Package api exposes the index pipeline over HTTP: computing runs from a
// dataset reference, reading zone series, and rendering bulletins.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"goenso/app"
	"goenso/internal/config"
	"goenso/internal/observability"
	"goenso/ports"
)

// Deps are the collaborators the server drives. NetCDF and CSV are picked
// per request by the referenced file's extension.
type Deps struct {
	NetCDF  ports.FieldSource
	CSV     ports.FieldSource
	Repo    ports.IndexRepository
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Server is the HTTP front of the index service. Engine settings are fixed
// at construction; each compute request builds a fresh engine from them.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server

	source    Deps
	engineCfg app.Config
	defaults  config.DataConfig

	sem     *semaphore.Weighted
	timeout time.Duration

	// Latest computed run, served by the zone and bulletin endpoints.
	lastMu     sync.RWMutex
	lastEngine *app.Engine
	lastReport *app.Report
}

// NewServer wires routes, middleware, and the compute concurrency bound.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	engineCfg, err := cfg.Engine.PipelineConfig()
	if err != nil {
		return nil, err
	}

	gin.SetMode(ginMode(cfg.Server.GinMode))
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(deps.Logger))

	s := &Server{
		router:    router,
		source:    deps,
		engineCfg: engineCfg,
		defaults:  cfg.Data,
		sem:       semaphore.NewWeighted(cfg.Compute.MaxConcurrent),
		timeout:   cfg.Compute.Timeout,
		httpServer: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	s.setupRoutes(cfg.Server.MetricsEnabled)
	return s, nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes(metricsEnabled bool) {
	s.router.GET("/healthz", s.handleHealth)
	if metricsEnabled {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	s.router.POST("/v1/indices/compute", s.handleCompute)
	s.router.GET("/v1/zones/:zone", s.handleZone)
	s.router.GET("/v1/runs", s.handleListRuns)
	s.router.GET("/v1/runs/:id", s.handleGetRun)
	s.router.GET("/v1/bulletin", s.handleBulletin)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.source.Logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func ginMode(mode string) string {
	switch mode {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// sourceFor picks the loader matching the referenced file. NetCDF is the
// default; only .csv goes through the tidy-CSV reader.
func (s *Server) sourceFor(path string) (ports.FieldSource, string) {
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return s.source.CSV, "csv"
	}
	return s.source.NetCDF, "netcdf"
}

// setLast publishes the freshly computed run for the read endpoints.
func (s *Server) setLast(e *app.Engine, r *app.Report) {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	s.lastEngine = e
	s.lastReport = r
}

func (s *Server) last() (*app.Engine, *app.Report) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.lastEngine, s.lastReport
}
