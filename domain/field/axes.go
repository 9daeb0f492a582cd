package field

import (
	"time"
)

// Axis is one named, coordinate-valued dimension of a Field. Exactly one of
// Coords or Times is populated: Times on a calendar axis, Coords everywhere
// else (lat, lon, month, mode).
type Axis struct {
	Name   string
	Coords []float64
	Times  []time.Time
}

// Len returns the number of coordinate labels on the axis.
func (a Axis) Len() int {
	if a.Times != nil {
		return len(a.Times)
	}
	return len(a.Coords)
}

// IsTime reports whether the axis carries calendar coordinates.
func (a Axis) IsTime() bool {
	return a.Times != nil
}

// clone deep-copies the axis so derived fields never alias coordinate slices.
func (a Axis) clone() Axis {
	out := Axis{Name: a.Name}
	if a.Times != nil {
		out.Times = make([]time.Time, len(a.Times))
		copy(out.Times, a.Times)
		return out
	}
	out.Coords = make([]float64, len(a.Coords))
	copy(out.Coords, a.Coords)
	return out
}

// NumAxis creates a numeric-coordinate axis.
func NumAxis(name string, coords []float64) Axis {
	return Axis{Name: name, Coords: coords}
}

// TimeAxis creates the calendar axis, conventionally named "time".
func TimeAxis(times []time.Time) Axis {
	return Axis{Name: "time", Times: times}
}

// MonthAxis creates the 12-entry calendar-month axis produced by a
// climatology, with coordinates 1..12.
func MonthAxis() Axis {
	coords := make([]float64, 12)
	for i := range coords {
		coords[i] = float64(i + 1)
	}
	return Axis{Name: "month", Coords: coords}
}

// ModeAxis creates an EOF mode axis with coordinates 0..n-1.
func ModeAxis(n int) Axis {
	coords := make([]float64, n)
	for i := range coords {
		coords[i] = float64(i)
	}
	return Axis{Name: "mode", Coords: coords}
}

// RangeAxis creates a numeric axis with coordinates lo, lo+step, ... covering
// n entries. Convenient for regular lat/lon grids.
func RangeAxis(name string, lo, step float64, n int) Axis {
	coords := make([]float64, n)
	for i := range coords {
		coords[i] = lo + step*float64(i)
	}
	return Axis{Name: name, Coords: coords}
}
