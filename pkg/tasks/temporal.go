package tasks

import "time"

// All scheduling comparisons run at UTC day granularity: the time of day
// never participates in ordering.

func dayOf(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

func beforeDay(a, b time.Time) bool {
	return dayOf(a).Before(dayOf(b))
}

func afterDay(a, b time.Time) bool {
	return dayOf(a).After(dayOf(b))
}

// coalesceTime prefers the update's value over the stored one.
func coalesceTime(update, stored *time.Time) *time.Time {
	if update != nil {
		return update
	}
	return stored
}
