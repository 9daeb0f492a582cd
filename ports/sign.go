package ports

import (
	"goenso/domain/enso"
	"goenso/domain/field"
)

// SignResolver removes the sign ambiguity of freshly fitted EOF modes so
// the derived index has physical meaning (positive E during eastern-Pacific
// warming). Implementations inspect either the spatial loadings or the PCs
// over known event windows.
type SignResolver interface {
	// Resolve inspects the uncorrected EOF patterns (mode, lat, lon) and
	// principal components (time, mode) and returns the per-mode factor.
	Resolve(eofs *field.Field, pcs *field.Field) (enso.CorrectionFactor, error)

	// Name identifies the strategy in logs and run fingerprints.
	Name() string
}
