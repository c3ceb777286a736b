package timeutils

import (
	"fmt"
	"time"
)

const (
	ThirtyMins = time.Minute * 30
)

// DurationLeftOfSP returns the amount of time remaining in the settlement period, given the current time `t`.
func DurationLeftOfSP(t time.Time) time.Duration {
	spStart := FloorHH(t)
	durationLeft := ThirtyMins - t.Sub(spStart)
	return durationLeft
}

// StartOfSettlementPeriod returns the start time of the 30min settlement period denoted by the given date and SP number.
// Settlement periods are counted from local midnight, so clock change days have 46 or 50 periods.
func StartOfSettlementPeriod(dateStr string, settlementPeriod int, location *time.Location) (time.Time, error) {

	if settlementPeriod < 1 || settlementPeriod > 50 {
		return time.Time{}, fmt.Errorf("invalid settlement period: %d", settlementPeriod)
	}

	// Go doesn't have standalone Dates, so parse into a datetime and then re-create it in the right timezone.
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}

	t := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, location)
	t = t.Add(time.Duration(settlementPeriod-1) * ThirtyMins)

	return t, nil
}
