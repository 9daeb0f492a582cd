// Package app assembles the diagnostic pipeline: climatology removal, EOF
// decomposition, sign correction, and the derived E/C products. It owns the
// engine configuration and keeps it immutable once an engine is built.
package app

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"goenso/adapters/sign"
	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/domain/field"
	"goenso/internal/climatology"
	"goenso/internal/eof"
	"goenso/internal/regression"
	"goenso/internal/smoothing"
	"goenso/ports"
)

// DefaultBasePeriod is the reference period used for climatology and EOF
// fitting when the configuration leaves it unset.
var DefaultBasePeriod = core.NewPeriod("1979-01-01", "2009-12-30")

// Config selects how an engine is built. The zero value is fully usable:
// tropical Pacific domain, 1979-2009 base period, 1-2-1 smoothing kernel,
// and the loading-box sign strategy.
type Config struct {
	// Domain restricts the decomposition in space. Zero means the default
	// tropical Pacific box.
	Domain enso.Region
	// Base is the climatology and fitting period. Zero means 1979-01-01
	// through 2009-12-30.
	Base core.Period
	// IsAnomaly marks the input as already deseasonalized, so no
	// climatology is computed or subtracted.
	IsAnomaly bool
	// Climatology, when set, is subtracted in place of one computed from
	// the base period. Ignored when IsAnomaly is set.
	Climatology *field.Field
	// Kernel smooths principal components along time. Zero means the
	// 1-2-1 binomial kernel.
	Kernel smoothing.Kernel
	// Correction, when set, is applied as-is and no resolver runs.
	Correction enso.CorrectionFactor
	// Resolver picks the correction factor when none is given. Nil means
	// the loading-box strategy with its default reference box.
	Resolver ports.SignResolver
}

// Engine is a fitted E/C index pipeline. Its configuration is fixed at
// construction; variants with another kernel or correction factor are
// derived with WithKernel and WithCorrection and share the fitted solver,
// so a cached product can never outlive the settings it was computed under.
type Engine struct {
	cfg    Config
	clim   *field.Field
	anom   *field.Field
	solver *eof.Solver
	factor enso.CorrectionFactor
	rawPCs *field.Field
	pcs    *field.Field
	eofs   *field.Field

	smoothOnce sync.Once
	smoothPCs  *field.Field
	smoothErr  error
}

// NewEngine builds the pipeline for a (time, lat, lon) sea surface
// temperature field: subtract the climatology unless the input is already
// an anomaly, fit the EOF solver over the base period, project the full
// series, and resolve the sign correction.
func NewEngine(sst *field.Field, cfg Config) (*Engine, error) {
	if sst == nil {
		return nil, core.NewInvalidArgumentError("engine needs an input field")
	}
	if cfg.Domain.IsZero() {
		cfg.Domain = enso.DefaultDomain
	}
	if err := cfg.Domain.Validate(); err != nil {
		return nil, err
	}
	if cfg.Base.IsZero() {
		cfg.Base = DefaultBasePeriod
	}
	if cfg.Kernel.IsZero() {
		cfg.Kernel = smoothing.Default()
	}
	if !cfg.Correction.IsZero() {
		if err := cfg.Correction.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Resolver == nil {
		cfg.Resolver = sign.NewLoadingResolver(enso.Region{})
	}

	anom := sst
	var clim *field.Field
	if !cfg.IsAnomaly {
		var err error
		clim = cfg.Climatology
		if clim == nil {
			clim, err = climatology.Compute(sst, cfg.Base)
			if err != nil {
				return nil, err
			}
		}
		anom, err = climatology.Anomaly(sst, clim, core.Period{})
		if err != nil {
			return nil, err
		}
	}

	solver, err := eof.Fit(anom, eof.Config{Domain: cfg.Domain, Base: cfg.Base})
	if err != nil {
		return nil, err
	}
	rawPCs, err := solver.Project(anom)
	if err != nil {
		return nil, err
	}

	factor := cfg.Correction
	if factor.IsZero() {
		factor, err = cfg.Resolver.Resolve(solver.EOFs(), rawPCs)
		if err != nil {
			return nil, fmt.Errorf("resolving sign correction: %w", err)
		}
	}

	e := &Engine{
		cfg:    cfg,
		clim:   clim,
		anom:   anom,
		solver: solver,
		factor: factor,
		rawPCs: rawPCs,
	}
	if err := e.applyCorrection(); err != nil {
		return nil, err
	}
	return e, nil
}

// applyCorrection derives the corrected PCs and EOF patterns from the
// solver's raw output.
func (e *Engine) applyCorrection() error {
	pcs, err := e.factor.Apply(e.rawPCs)
	if err != nil {
		return err
	}
	eofs, err := e.factor.Apply(e.solver.EOFs())
	if err != nil {
		return err
	}
	e.pcs = pcs
	e.eofs = eofs
	return nil
}

// WithKernel derives an engine that smooths with k. The fitted solver and
// corrected components are shared; the smoothing cache starts empty.
func (e *Engine) WithKernel(k smoothing.Kernel) (*Engine, error) {
	if k.IsZero() {
		return nil, core.NewInvalidArgumentError("derived engine needs a kernel")
	}
	d := &Engine{
		cfg:    e.cfg,
		clim:   e.clim,
		anom:   e.anom,
		solver: e.solver,
		factor: e.factor,
		rawPCs: e.rawPCs,
		pcs:    e.pcs,
		eofs:   e.eofs,
	}
	d.cfg.Kernel = k
	return d, nil
}

// WithCorrection derives an engine that applies c in place of the resolved
// factor. PCs and EOF patterns are recomputed from the uncorrected solver
// output; the smoothing cache starts empty.
func (e *Engine) WithCorrection(c enso.CorrectionFactor) (*Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	d := &Engine{
		cfg:    e.cfg,
		clim:   e.clim,
		anom:   e.anom,
		solver: e.solver,
		factor: c,
		rawPCs: e.rawPCs,
	}
	d.cfg.Correction = c
	if err := d.applyCorrection(); err != nil {
		return nil, err
	}
	return d, nil
}

// Config returns the normalized configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Correction returns the sign factor in effect, resolved or explicit.
func (e *Engine) Correction() enso.CorrectionFactor { return e.factor }

// Climatology returns the monthly climatology that was subtracted, or nil
// when the input was already an anomaly.
func (e *Engine) Climatology() *field.Field { return e.clim }

// Anomaly returns the full-grid anomaly field the engine operates on.
func (e *Engine) Anomaly() *field.Field { return e.anom }

// PCs returns the corrected principal components over the full series as a
// (time, mode) field.
func (e *Engine) PCs() *field.Field { return e.pcs }

// EOFs returns the corrected spatial patterns as a (mode, lat, lon) field
// on the fitted sub-domain grid.
func (e *Engine) EOFs() *field.Field { return e.eofs }

// Eigenvalues returns the eigenvalues of the fitted covariance, descending.
func (e *Engine) Eigenvalues() []float64 { return e.solver.Eigenvalues() }

// ExplainedVariance returns the variance fraction of each retained mode.
func (e *Engine) ExplainedVariance() []float64 { return e.solver.ExplainedVariance() }

// Samples returns the number of base-period samples the fit used.
func (e *Engine) Samples() int { return e.solver.Samples() }

// PCsSmooth returns the corrected PCs convolved along time with the
// configured kernel. Computed once per engine; the configuration cannot
// change under the cache.
func (e *Engine) PCsSmooth() (*field.Field, error) {
	e.smoothOnce.Do(func() {
		e.smoothPCs, e.smoothErr = smoothing.Convolve(e.pcs, e.cfg.Kernel, "time")
	})
	return e.smoothPCs, e.smoothErr
}

// ECIndex composes the E and C index from the corrected PCs.
func (e *Engine) ECIndex() (enso.Index, error) {
	return enso.ComposeIndex(e.pcs)
}

// ECIndexSmooth composes the E and C index from the smoothed PCs.
func (e *Engine) ECIndexSmooth() (enso.Index, error) {
	sm, err := e.PCsSmooth()
	if err != nil {
		return enso.Index{}, err
	}
	return enso.ComposeIndex(sm)
}

// Patterns regresses the base-period E and C index onto the full-grid
// anomaly, giving one spatial pattern per index variable.
func (e *Engine) Patterns() (enso.Patterns, error) {
	idx, err := e.ECIndex()
	if err != nil {
		return enso.Patterns{}, err
	}
	return regression.PatternMap(idx, e.anom, e.cfg.Base)
}

// Alpha measures the nonlinearity between the two modes: the quadratic
// coefficient of a degree-2 fit of DJF-mean PC2 against DJF-mean PC1.
func (e *Engine) Alpha() (float64, error) {
	pc1, pc2, err := e.alphaSeries()
	if err != nil {
		return 0, err
	}
	return regression.Alpha(pc1, pc2)
}

// AlphaFit is Alpha plus the fitted curve on a dense grid over the PC1
// range, for plotting.
func (e *Engine) AlphaFit() (float64, regression.FitCurve, error) {
	pc1, pc2, err := e.alphaSeries()
	if err != nil {
		return 0, regression.FitCurve{}, err
	}
	return regression.AlphaFit(pc1, pc2)
}

// alphaSeries prepares the DJF seasonal means of the corrected PCs.
func (e *Engine) alphaSeries() (pc1, pc2 []float64, err error) {
	djf, err := DJFMeans(e.pcs)
	if err != nil {
		return nil, nil, err
	}
	n := len(djf.Coords("year"))
	pc1 = make([]float64, n)
	pc2 = make([]float64, n)
	for i := 0; i < n; i++ {
		pc1[i] = djf.At(i, 0)
		pc2[i] = djf.At(i, 1)
	}
	return pc1, pc2, nil
}

// Fingerprint identifies the engine configuration for run bookkeeping. Two
// engines with the same fingerprint produce the same products from the
// same input.
func (e *Engine) Fingerprint() string {
	resolver := "explicit"
	if e.cfg.Correction.IsZero() && e.cfg.Resolver != nil {
		resolver = e.cfg.Resolver.Name()
	}
	data := fmt.Sprintf("domain:%s|base:%s|anomaly:%t|kernel:%s|factor:%s|sign:%s",
		e.cfg.Domain, e.cfg.Base, e.cfg.IsAnomaly, e.cfg.Kernel, e.factor, resolver)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:8])
}
