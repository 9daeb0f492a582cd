package sign

import (
	"math"

	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/domain/field"
)

// Events names the historical extremes the event strategy anchors on.
type Events struct {
	ElNino core.Period // strong eastern-Pacific El Niño window
	LaNina core.Period // strong La Niña window
}

// DefaultEvents uses the 1997/98 El Niño and the 1988/89 La Niña.
var DefaultEvents = Events{
	ElNino: core.NewPeriod("1997-11", "1998-02"),
	LaNina: core.NewPeriod("1988-10", "1989-02"),
}

// EventResolver fixes signs from the PCs during known events: mode 0 is
// flipped so its mean over the El Niño window is positive, then mode 1 so
// the C index over the La Niña window is negative. The series must cover
// both windows.
type EventResolver struct {
	events Events
}

// NewEventResolver builds the strategy; zero windows use DefaultEvents.
func NewEventResolver(events Events) *EventResolver {
	if events.ElNino.IsZero() {
		events.ElNino = DefaultEvents.ElNino
	}
	if events.LaNina.IsZero() {
		events.LaNina = DefaultEvents.LaNina
	}
	return &EventResolver{events: events}
}

// Name implements ports.SignResolver.
func (r *EventResolver) Name() string { return "event-window" }

// Resolve implements ports.SignResolver. Only the PCs are inspected; the
// EOF patterns argument is unused by this strategy.
func (r *EventResolver) Resolve(_ *field.Field, pcs *field.Field) (enso.CorrectionFactor, error) {
	if err := pcs.RequireDims("time", "mode"); err != nil {
		return enso.CorrectionFactor{}, err
	}

	ninoPC0, err := windowMean(pcs, 0, r.events.ElNino)
	if err != nil {
		return enso.CorrectionFactor{}, err
	}
	factor := enso.Identity()
	if ninoPC0 <= 0 {
		factor[0] = -1
	}

	ninaPC0, err := windowMean(pcs, 0, r.events.LaNina)
	if err != nil {
		return enso.CorrectionFactor{}, err
	}
	ninaPC1, err := windowMean(pcs, 1, r.events.LaNina)
	if err != nil {
		return enso.CorrectionFactor{}, err
	}
	// Mean C index over the window is linear in the window means, so the
	// sign decision only needs them.
	if (factor[0]*ninaPC0+ninaPC1)/math.Sqrt2 > 0 {
		factor[1] = -1
	}
	return factor, nil
}

// windowMean averages one PC mode over an event window.
func windowMean(pcs *field.Field, mode int, window core.Period) (float64, error) {
	r, err := window.Resolve()
	if err != nil {
		return 0, err
	}
	sub, err := pcs.SelPeriod(r)
	if err != nil {
		return 0, err
	}
	if len(sub.Times()) == 0 {
		return 0, core.NewInvalidArgumentErrorf("event window %s holds no samples", window)
	}
	sub, err = sub.Isel("mode", []int{mode})
	if err != nil {
		return 0, err
	}
	mean, err := sub.MeanOver("time", "mode")
	if err != nil {
		return 0, err
	}
	v, err := mean.Scalar()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, core.NewInvalidArgumentErrorf("event window %s holds no finite samples", window)
	}
	return v, nil
}
