package enso

import (
	"sort"
	"strings"

	"goenso/domain/core"
	"goenso/domain/field"
)

// Niño zone boxes, inclusive bounds, longitude in degrees east [0,360).
var zoneBoxes = map[string]Region{
	"12": {LatMin: -10, LatMax: 0, LonMin: 270, LonMax: 280},
	"3":  {LatMin: -5, LatMax: 5, LonMin: 210, LonMax: 270},
	"34": {LatMin: -5, LatMax: 5, LonMin: 190, LonMax: 240},
	"4":  {LatMin: -5, LatMax: 5, LonMin: 160, LonMax: 210},
}

// Zones lists the known Niño zone keys.
func Zones() []string {
	keys := make([]string, 0, len(zoneBoxes))
	for k := range zoneBoxes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ZoneBox returns the box behind a zone key.
func ZoneBox(zone string) (Region, error) {
	box, ok := zoneBoxes[zone]
	if !ok {
		return Region{}, core.NewInvalidArgumentErrorf("unknown zone %q, known zones: %s", zone, strings.Join(Zones(), ", "))
	}
	return box, nil
}

// ZoneMean averages the field over one Niño zone box. The result keeps any
// non-spatial axes, so a (time, lat, lon) field yields a time series and a
// (lat, lon) snapshot yields a scalar. Independent of the EOF pipeline.
func ZoneMean(f *field.Field, zone string) (*field.Field, error) {
	box, err := ZoneBox(zone)
	if err != nil {
		return nil, err
	}
	if err := f.RequireDims("lat", "lon"); err != nil {
		return nil, err
	}
	sub, err := f.SelRange("lat", box.LatMin, box.LatMax)
	if err != nil {
		return nil, err
	}
	sub, err = sub.SelRange("lon", box.LonMin, box.LonMax)
	if err != nil {
		return nil, err
	}
	mean, err := sub.MeanOver("lat", "lon")
	if err != nil {
		return nil, err
	}
	return mean.WithName("nino" + zone), nil
}
