package core

import (
	"fmt"
	"time"
)

// Granularity selects the reporting bucket size.
type Granularity string

const (
	Hourly  Granularity = "hourly"
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity maps a tag to a Granularity, defaulting to Daily for
// anything unknown. Unknown tags must degrade rather than fail.
func ParseGranularity(tag string) Granularity {
	switch Granularity(tag) {
	case Hourly, Weekly, Monthly:
		return Granularity(tag)
	default:
		return Daily
	}
}

// PeriodKey identifies a reporting bucket. Sort is a canonical key that
// orders buckets chronologically within one granularity; Display is the
// human-readable label shown in tables. Two instants in the same bucket
// always yield identical keys.
type PeriodKey struct {
	Sort    string
	Display string
}

// BucketKey truncates an instant into its period bucket. Truncation drops
// sub-unit fields; weekly buckets use ISO-8601 week numbering, where the ISO
// year near a year boundary may differ from the calendar year.
func BucketKey(t time.Time, g Granularity) PeriodKey {
	t = t.UTC()
	switch g {
	case Hourly:
		b := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
		return PeriodKey{
			Sort:    b.Format("2006-01-02 15:04:05"),
			Display: b.Format("2006-01-02 15:00"),
		}
	case Weekly:
		year, week := t.ISOWeek()
		label := fmt.Sprintf("%d-W%02d", year, week)
		return PeriodKey{Sort: label, Display: label}
	case Monthly:
		b := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return PeriodKey{
			Sort:    b.Format("2006-01-02 15:04:05"),
			Display: b.Format("2006-01"),
		}
	default: // daily
		b := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return PeriodKey{
			Sort:    b.Format("2006-01-02 15:04:05"),
			Display: b.Format("2006-01-02"),
		}
	}
}

// Clock carries the fixed reporting bounds and the reference "now". It is
// passed explicitly so the engine stays deterministic under test; nothing in
// the core reads the wall clock.
type Clock struct {
	TrialStart time.Time
	TrialEnd   time.Time
	Now        time.Time
}

// Window resolves the (since, until) bounds for a granularity. Hourly reports
// cover the reference day; everything else runs from the trial start. Both
// bounds are inclusive.
func (c Clock) Window(g Granularity) (since, until time.Time) {
	until = c.Now
	if c.TrialEnd.Before(until) {
		until = c.TrialEnd
	}
	if g == Hourly {
		since = time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC)
		return since, until
	}
	return c.TrialStart, until
}
