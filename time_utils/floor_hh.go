package timeutils

import "time"

// FloorHH returns the given `t` rounded down to the nearest half-hour boundary.
// The rounding is done on the absolute instant, rather than the wall clock, so that the repeated hour when the clocks go
// back is floored correctly. This holds for any location whose UTC offset is a whole number of half hours.
func FloorHH(t time.Time) time.Time {
	return t.Truncate(ThirtyMins)
}
