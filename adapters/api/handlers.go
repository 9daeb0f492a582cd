package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"goenso/app"
	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/internal/bulletin"
	apperrors "goenso/internal/errors"
	"goenso/ports"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleCompute runs the full pipeline for a dataset reference. Concurrent
// computations are bounded by the weighted semaphore; a request that cannot
// acquire a slot before its deadline is turned away rather than queued
// forever.
func (s *Server) handleCompute(c *gin.Context) {
	var req computeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	req.applyDefaults(s.defaults)
	if req.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no dataset path given and SST_FILE is unset"})
		return
	}

	ctx := c.Request.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m := s.source.Metrics
	if err := s.sem.Acquire(ctx, 1); err != nil {
		m.ComputeRequests.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "compute capacity exhausted"})
		return
	}
	defer s.sem.Release(1)

	m.ActiveComputes.Inc()
	defer m.ActiveComputes.Dec()

	start := time.Now()
	resp, status, err := s.compute(ctx, req)
	m.ComputeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.ComputeRequests.WithLabelValues("error").Inc()
		s.source.Logger.Error("compute failed", "path", req.Path, "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	m.ComputeRequests.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) compute(ctx context.Context, req computeRequest) (*computeResponse, int, error) {
	src, format := s.sourceFor(req.Path)
	f, err := src.ReadField(ctx, ports.FieldRef{Path: req.Path, Variable: req.Variable})
	if err != nil {
		s.source.Metrics.FieldsLoaded.WithLabelValues(format, "error").Inc()
		return nil, statusFor(err), err
	}
	s.source.Metrics.FieldsLoaded.WithLabelValues(format, "success").Inc()

	engine, err := app.NewEngine(f, s.engineCfg)
	if err != nil {
		return nil, statusFor(err), err
	}
	report, err := app.BuildReport(ctx, engine, req.Dataset)
	if err != nil {
		return nil, statusFor(err), err
	}
	index, err := engine.ECIndex()
	if err != nil {
		return nil, statusFor(err), err
	}

	if s.source.Repo != nil {
		run := ports.IndexRun{
			ID:          report.RunID,
			Dataset:     report.Dataset,
			Fingerprint: report.Fingerprint,
			CreatedAt:   report.CreatedAt,
			Index:       index,
		}
		if err := s.source.Repo.SaveRun(ctx, run); err != nil {
			return nil, statusFor(err), err
		}
		s.source.Metrics.RunsPersisted.Inc()
	}

	s.setLast(engine, report)
	return &computeResponse{Report: report, Index: indexPayload(index)}, http.StatusOK, nil
}

// handleZone serves the mean anomaly series of one Niño zone, computed from
// the latest run.
func (s *Server) handleZone(c *gin.Context) {
	zone := c.Param("zone")
	if _, err := enso.ZoneBox(zone); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.source.Metrics.ZoneRequests.WithLabelValues(zone).Inc()

	engine, _ := s.last()
	if engine == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no index computed yet"})
		return
	}

	// Zone boxes assume ascending axes.
	sorted, err := engine.Anomaly().SortBy("lat", "lon")
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	series, err := enso.ZoneMean(sorted, zone)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	stats, err := enso.Summarize(series)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, zoneResponse{
		Zone:   zone,
		Months: formatMonths(series.Times()),
		Values: series.Values(),
		Stats:  stats,
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	runs, err := s.source.Repo.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []ports.RunSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.source.Repo.GetRun(c.Request.Context(), core.RunID(c.Param("id")))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runResponse{
		ID:          run.ID,
		Dataset:     run.Dataset,
		Fingerprint: run.Fingerprint,
		CreatedAt:   run.CreatedAt,
		Index:       indexPayload(run.Index),
	})
}

// handleBulletin renders the latest run as a markdown or HTML bulletin.
func (s *Server) handleBulletin(c *gin.Context) {
	_, report := s.last()
	if report == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no index computed yet"})
		return
	}

	switch c.DefaultQuery("format", "markdown") {
	case "html":
		c.Data(http.StatusOK, "text/html; charset=utf-8", bulletin.RenderHTML(report))
	case "markdown":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(bulletin.Render(report)))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be markdown or html"})
	}
}

// statusFor maps pipeline and adapter errors onto HTTP statuses. Input and
// configuration mistakes are the client's, decomposition failures mean the
// data cannot support the analysis, and everything else is on us.
func statusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeSourceError:
		return http.StatusUnprocessableEntity
	}
	switch {
	case core.IsInvalidArgument(err), core.IsMissingDimension(err):
		return http.StatusBadRequest
	case core.IsDecompositionError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
