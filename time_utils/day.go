package timeutils

import "time"

// StartOfDay returns local midnight of the day that `t` falls on, in `t`'s location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayPeriod returns the period from local midnight of `t`'s day until the following local midnight.
// On clock change days the period is 23 or 25 hours long.
func DayPeriod(t time.Time) Period {
	start := StartOfDay(t)
	return Period{
		Start: start,
		End:   start.AddDate(0, 0, 1),
	}
}

// PreviousDayPeriod returns the whole local day before the day that `t` falls on.
func PreviousDayPeriod(t time.Time) Period {
	start := StartOfDay(t)
	return Period{
		Start: start.AddDate(0, 0, -1),
		End:   start,
	}
}

// IsWeekday returns true if the day is Mon-Fri inclusive, or False if the day is Sat or Sun
func IsWeekday(t time.Time) bool {
	day := t.Weekday()
	if day == time.Saturday || day == time.Sunday {
		return false
	}
	return true
}
