// Package window normalizes a raw date-range selection into the canonical
// query window every downstream fetch is keyed by.
package window

import (
	"time"

	"github.com/rotisserie/eris"
)

// Bucket is the calendar unit events are grouped into.
type Bucket string

const (
	Week  Bucket = "WEEK"
	Month Bucket = "MONTH"
)

// partitionKeyLayout is the zero-padded 8-digit form the event store
// partitions on. Partition filtering is string-lexicographic, so any other
// formatting silently mis-scopes the scan.
const partitionKeyLayout = "20060102"

// Validation errors. These halt the current render and are shown to the
// user; nothing downstream runs after one of them.
var (
	ErrIncompleteRange    = eris.New("window: select both a start and an end date")
	ErrUnknownGranularity = eris.New("window: unknown granularity")
	ErrOutOfRange         = eris.New("window: date outside the reportable range")
)

// granularities maps the selector labels to bucket units.
var granularities = map[string]Bucket{
	"Week":  Week,
	"Month": Month,
}

// QueryWindow is a validated, canonical date-range selection. Treat it as
// immutable once built; a fresh one is constructed per render.
type QueryWindow struct {
	Start     time.Time
	End       time.Time
	Bucket    Bucket
	WeekStart time.Weekday
}

// PartitionRange is the inclusive string-keyed scan boundary derived from a
// QueryWindow.
type PartitionRange struct {
	Start string
	End   string
}

// Normalizer validates raw selections against the configured reportable
// bounds and the pinned week-start convention.
type Normalizer struct {
	Min       time.Time
	Max       time.Time
	WeekStart time.Weekday
}

// Normalize turns a possibly-incomplete selection into a QueryWindow.
func (n Normalizer) Normalize(start, end *time.Time, granularity string) (QueryWindow, error) {
	if start == nil || end == nil {
		return QueryWindow{}, ErrIncompleteRange
	}

	bucket, ok := granularities[granularity]
	if !ok {
		return QueryWindow{}, eris.Wrapf(ErrUnknownGranularity, "%q", granularity)
	}

	s := dateOnly(*start)
	e := dateOnly(*end)
	if e.Before(s) {
		return QueryWindow{}, eris.Wrapf(ErrIncompleteRange, "start %s after end %s",
			s.Format(time.DateOnly), e.Format(time.DateOnly))
	}
	if s.Before(n.Min) || e.After(n.Max) {
		return QueryWindow{}, eris.Wrapf(ErrOutOfRange, "allowed %s..%s",
			n.Min.Format(time.DateOnly), n.Max.Format(time.DateOnly))
	}

	return QueryWindow{Start: s, End: e, Bucket: bucket, WeekStart: n.WeekStart}, nil
}

// Partitions formats both endpoints as zero-padded YYYYMMDD partition keys.
func (w QueryWindow) Partitions() PartitionRange {
	return PartitionRange{
		Start: w.Start.Format(partitionKeyLayout),
		End:   w.End.Format(partitionKeyLayout),
	}
}

// Truncate returns the calendar start of the bucket containing t. MONTH
// truncates to day 1; WEEK truncates to the configured week-start day.
func (w QueryWindow) Truncate(t time.Time) time.Time {
	t = dateOnly(t)
	if w.Bucket == Month {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	back := (int(t.Weekday()) - int(w.WeekStart) + 7) % 7
	return t.AddDate(0, 0, -back)
}

// ParseWeekStart maps a configured week-start name to a weekday.
func ParseWeekStart(name string) (time.Weekday, error) {
	switch name {
	case "monday", "Monday", "":
		return time.Monday, nil
	case "sunday", "Sunday":
		return time.Sunday, nil
	default:
		return 0, eris.Errorf("window: unsupported week start %q", name)
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
