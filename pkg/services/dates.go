package services

import "time"

const dateLayout = "2006-01-02"

// dateOnly truncates a timestamp to its calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// normalizeRange truncates both bounds to dates and swaps them when inverted.
func normalizeRange(from, to time.Time) (time.Time, time.Time) {
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) {
		from, to = to, from
	}
	return from, to
}

// daysInclusive counts calendar days in [from, to]. Bounds must be
// normalized; a zero-length range counts as one day.
func daysInclusive(from, to time.Time) int {
	return int(to.Sub(from).Hours()/24) + 1
}

// dateKey keys in-memory preload maps; time.Time equality is unreliable
// across driver round-trips, calendar dates are not.
func dateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// eachDay calls fn for every date in [from, to] ascending.
func eachDay(from, to time.Time, fn func(d time.Time) error) error {
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}
