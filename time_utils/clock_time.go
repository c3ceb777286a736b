package timeutils

import (
	"fmt"
	"time"
)

// ClockTime represents a time of day in the given locale, without a date.
type ClockTime struct {
	Hour     int
	Minute   int
	Second   int
	Location *time.Location
}

// OnDate returns a time with the given clock time on the given date
func (c *ClockTime) OnDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, c.Hour, c.Minute, c.Second, 0, c.Location)
}

// ParseClockTime parses "15:04" or "15:04:05" into a ClockTime in the given location.
func ParseClockTime(str string, location *time.Location) (ClockTime, error) {
	layouts := []string{"15:04:05", "15:04"}
	for _, layout := range layouts {
		t, err := time.Parse(layout, str)
		if err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Location: location}, nil
		}
	}
	return ClockTime{}, fmt.Errorf("invalid clock time '%s'", str)
}

// sinceMidnight returns the nominal offset of the clock time from midnight.
func (c *ClockTime) sinceMidnight() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute + time.Duration(c.Second)*time.Second
}
