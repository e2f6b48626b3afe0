package usage

import (
	"fmt"
	"time"
)

// Unit is the bucket width of a usage chart.
type Unit string

const (
	Minute Unit = "minute"
	Hour   Unit = "hour"
	Day    Unit = "day"
)

// ParseUnit accepts minute, hour or day.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case Minute, Hour, Day:
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
}

func (u Unit) layout() string {
	switch u {
	case Minute:
		return "200601021504"
	case Hour:
		return "2006010215"
	}
	return DayLayout
}

// Key formats ms as this unit's bucket label in loc.
func (u Unit) Key(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format(u.layout())
}

// Window bounds accepted by charts: years 1 through 9999 UTC.
var (
	minWindowMs = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	maxWindowMs = time.Date(9999, time.December, 31, 23, 59, 59, 999e6, time.UTC).UnixMilli()
)

func (u Unit) step() time.Duration {
	switch u {
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	}
	return 24 * time.Hour
}

// buckets lists the labels covering [start, end] in loc. As with
// CandidateDaysIn, start after end yields the single bucket of end.
// The bucket count is bounded before any label is built.
func (u Unit) buckets(start, end int64, loc *time.Location, limit int) ([]string, error) {
	for _, ms := range []int64{start, end} {
		if ms < minWindowMs || ms > maxWindowMs {
			return nil, fmt.Errorf("%w: %d", ErrWindowOutOfRange, ms)
		}
	}
	last := u.Key(end, loc)
	if start > end {
		return []string{last}, nil
	}

	// Both bounds are in range, so the difference cannot overflow.
	if u == Day {
		// Calendar days can be 23 or 25 hours long, so this is only a
		// lower bound; it keeps the walk below within limit+2 days.
		if n := (end - start) / u.step().Milliseconds(); n > int64(limit) {
			return nil, fmt.Errorf("%w: %d days", ErrTooManyBuckets, n)
		}
		days := CandidateDaysIn(start, end, loc)
		if len(days) > limit {
			return nil, fmt.Errorf("%w: %d days", ErrTooManyBuckets, len(days))
		}
		return days, nil
	}
	if n := (end-start)/u.step().Milliseconds() + 1; n > int64(limit) {
		return nil, fmt.Errorf("%w: %d %ss", ErrTooManyBuckets, n, u)
	}

	step := u.step()
	t := time.UnixMilli(start).In(loc).Truncate(step)
	labels := []string{t.Format(u.layout())}
	for labels[len(labels)-1] != last {
		t = t.Add(step)
		if t.UnixMilli() > end+step.Milliseconds() {
			break
		}
		if key := t.Format(u.layout()); key != labels[len(labels)-1] {
			labels = append(labels, key)
		}
	}
	return labels, nil
}

// Serie is the hit count of one feature per bucket.
type Serie struct {
	Name   string  `json:"name"`
	Counts []int64 `json:"counts"`
}

// Total returns the sum of all buckets.
func (s Serie) Total() int64 {
	var total int64
	for _, c := range s.Counts {
		total += c
	}
	return total
}

// TimeSeriesChart holds dense series sharing the same bucket labels.
type TimeSeriesChart struct {
	Unit   Unit     `json:"unit"`
	Labels []string `json:"labels"`
	Series []Serie  `json:"series"` // ordered by name
}

// Serie returns the series named name.
func (c *TimeSeriesChart) Serie(name string) (Serie, bool) {
	for _, s := range c.Series {
		if s.Name == name {
			return s, true
		}
	}
	return Serie{}, false
}

// Slice is one feature's share of hits.
type Slice struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}
