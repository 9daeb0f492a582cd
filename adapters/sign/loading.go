// Package sign implements the strategies that fix the arbitrary sign of
// fitted EOF modes: inspecting spatial loadings over a reference oceanic
// box, or the index sign during known historical ENSO events.
package sign

import (
	"math"

	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/domain/field"
)

// DefaultLoadingBox is the central Pacific reference box the loading
// strategy averages over. Like the event windows, it is a tunable choice,
// not a physical constant.
var DefaultLoadingBox = enso.Region{LatMin: -5, LatMax: 5, LonMin: 180, LonMax: 200}

// LoadingResolver flips each mode so its mean spatial loading over the
// reference box is positive. This is the canonical default strategy.
type LoadingResolver struct {
	box enso.Region
}

// NewLoadingResolver builds the strategy; a zero box uses DefaultLoadingBox.
func NewLoadingResolver(box enso.Region) *LoadingResolver {
	if box.IsZero() {
		box = DefaultLoadingBox
	}
	return &LoadingResolver{box: box}
}

// Name implements ports.SignResolver.
func (r *LoadingResolver) Name() string { return "loading-box" }

// Resolve implements ports.SignResolver. Only the EOF patterns are
// inspected; the PCs argument is unused by this strategy.
func (r *LoadingResolver) Resolve(eofs *field.Field, _ *field.Field) (enso.CorrectionFactor, error) {
	if err := eofs.RequireDims("mode", "lat", "lon"); err != nil {
		return enso.CorrectionFactor{}, err
	}
	factor := enso.Identity()
	for m := range factor {
		loading, err := r.boxMean(eofs, m)
		if err != nil {
			return enso.CorrectionFactor{}, err
		}
		if loading <= 0 {
			factor[m] = -1
		}
	}
	return factor, nil
}

func (r *LoadingResolver) boxMean(eofs *field.Field, mode int) (float64, error) {
	sub, err := eofs.Isel("mode", []int{mode})
	if err != nil {
		return 0, err
	}
	if sub, err = sub.SelRange("lat", r.box.LatMin, r.box.LatMax); err != nil {
		return 0, err
	}
	if sub, err = sub.SelRange("lon", r.box.LonMin, r.box.LonMax); err != nil {
		return 0, err
	}
	mean, err := sub.MeanOver("mode", "lat", "lon")
	if err != nil {
		return 0, err
	}
	v, err := mean.Scalar()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, core.NewInvalidArgumentErrorf("sign reference box %s holds no ocean cells", r.box)
	}
	return v, nil
}
