package usage

import "time"

// DayLayout formats day keys as yyyyMMdd.
const DayLayout = "20060102"

// DayKey formats an epoch millisecond timestamp as a UTC day key.
func DayKey(ms int64) string {
	return DayKeyIn(ms, time.UTC)
}

// DayKeyIn formats ms as a day key in loc.
func DayKeyIn(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format(DayLayout)
}

// CandidateDays returns the UTC day keys from start to end, both included.
func CandidateDays(start, end int64) []string {
	return CandidateDaysIn(start, end, time.UTC)
}

// CandidateDaysIn returns the day keys in loc from the day of start to the
// day of end, one calendar day at a time, so DST shifts never skip a day.
// When start is after end the result holds only the day of end.
func CandidateDaysIn(start, end int64, loc *time.Location) []string {
	last := DayKeyIn(end, loc)
	if start > end {
		return []string{last}
	}

	t := dayStart(time.UnixMilli(start).In(loc))
	stop := dayStart(time.UnixMilli(end).In(loc))
	days := []string{t.Format(DayLayout)}
	for days[len(days)-1] != last && t.Before(stop) {
		t = t.AddDate(0, 0, 1)
		days = append(days, t.Format(DayLayout))
	}
	return days
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
