package sign

import (
	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/ports"
)

// ForStrategy returns the resolver registered under the given name, with
// each strategy's default reference windows. An empty name selects the
// loading-box strategy.
func ForStrategy(name string) (ports.SignResolver, error) {
	switch name {
	case "", "loading-box":
		return NewLoadingResolver(enso.Region{}), nil
	case "event-window":
		return NewEventResolver(Events{}), nil
	default:
		return nil, core.NewInvalidArgumentErrorf("unknown sign strategy %q", name)
	}
}
