package core

import (
	"strings"
	"time"
)

// Period is a pair of calendar date labels bounding a slice of a time axis.
// Labels may be partial: "1991" covers the whole year,
// "1991-06" the whole month, "1991-06-15" the whole day. Selection against
// a Period is inclusive of everything either label covers. An empty label
// leaves that side unbounded; the zero Period covers the full series.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NewPeriod creates a period from start/end date labels.
func NewPeriod(start, end string) Period {
	return Period{Start: start, End: end}
}

// IsZero reports whether both bounds are unset.
func (p Period) IsZero() bool {
	return p.Start == "" && p.End == ""
}

// String renders the period as "start/end" for logs and config fingerprints.
func (p Period) String() string {
	return p.Start + "/" + p.End
}

// Resolve expands the labels into a concrete TimeRange. Labels that parse
// as none of year, year-month, or full date yield ErrInvalidArgument.
func (p Period) Resolve() (TimeRange, error) {
	var r TimeRange
	if p.Start != "" {
		lo, _, err := labelBounds(p.Start)
		if err != nil {
			return TimeRange{}, err
		}
		r.Lo = lo
	}
	if p.End != "" {
		_, hi, err := labelBounds(p.End)
		if err != nil {
			return TimeRange{}, err
		}
		r.Hi = hi
	}
	return r, nil
}

// TimeRange is a resolved half-open interval [Lo, Hi). A zero bound is
// unbounded on that side.
type TimeRange struct {
	Lo time.Time
	Hi time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.Lo.IsZero() && t.Before(r.Lo) {
		return false
	}
	if !r.Hi.IsZero() && !t.Before(r.Hi) {
		return false
	}
	return true
}

// labelBounds returns the half-open interval covered by a date label.
func labelBounds(label string) (lo, hi time.Time, err error) {
	label = strings.TrimSpace(label)
	switch strings.Count(label, "-") {
	case 0:
		t, perr := time.ParseInLocation("2006", label, time.UTC)
		if perr != nil {
			return lo, hi, NewInvalidArgumentErrorf("cannot parse date label %q", label)
		}
		return t, t.AddDate(1, 0, 0), nil
	case 1:
		t, perr := time.ParseInLocation("2006-01", label, time.UTC)
		if perr != nil {
			return lo, hi, NewInvalidArgumentErrorf("cannot parse date label %q", label)
		}
		return t, t.AddDate(0, 1, 0), nil
	case 2:
		t, perr := time.ParseInLocation("2006-01-02", label, time.UTC)
		if perr != nil {
			return lo, hi, NewInvalidArgumentErrorf("cannot parse date label %q", label)
		}
		return t, t.AddDate(0, 0, 1), nil
	default:
		return lo, hi, NewInvalidArgumentErrorf("cannot parse date label %q", label)
	}
}
