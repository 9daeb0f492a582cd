package ports

import (
	"context"

	"goenso/domain/field"
)

// FieldRef names one gridded variable inside a dataset.
type FieldRef struct {
	Path     string `json:"path"`
	Variable string `json:"variable"`
}

// FieldSource loads labeled fields from an external dataset. The engine only
// consumes fields; how they are stored (NetCDF, CSV, a database) is the
// adapter's business.
type FieldSource interface {
	// ReadField materializes the referenced variable as a labeled field.
	// Gridded SST sources return (time, lat, lon) with longitude in
	// degrees east [0,360).
	ReadField(ctx context.Context, ref FieldRef) (*field.Field, error)
}
