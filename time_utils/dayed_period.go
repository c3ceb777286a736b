package timeutils

import (
	"fmt"
	"time"
)

// DayedPeriod gives a period of time on particular days
type DayedPeriod struct {
	ClockTimePeriod      // The period in clock time, e.g. "4pm to 6pm"
	Days            Days // Indicates the days on which this period applies
}

// AbsolutePeriod returns the equivilent `Period` instance for the given `DayedPeriod`, using `t` as the
// reference time that must be within the `DayedPeriod`.
// If `t` is outside of the `DayedPeriod` (i.e. on the wrong day or at the wrong time) then the `ok` boolean is returned as false.
//
// This function is inclusive of the Period.Start, but exclusive of the Period.End.
// A period that crosses midnight belongs to the day that it starts on.
func (d *DayedPeriod) AbsolutePeriod(t time.Time) (Period, bool) {

	period, ok := d.ClockTimePeriod.AbsolutePeriod(t)
	if !ok {
		return Period{}, false
	}

	if !d.Days.IsOnDay(period.Start) {
		return Period{}, false
	}

	return period, true
}

// Contains returns true if the given t is contained in the DayedPeriod
func (d *DayedPeriod) Contains(t time.Time) bool {
	_, contains := d.AbsolutePeriod(t)
	return contains
}

// UnmarshalYAML reads a dayed period of the form `{start: "00:30", end: "07:30", days: "all:Europe/London"}`.
// The clock times take the timezone given in `days`.
func (d *DayedPeriod) UnmarshalYAML(unmarshal func(interface{}) error) error {

	var raw struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
		Days  Days   `yaml:"days"`
	}
	err := unmarshal(&raw)
	if err != nil {
		return err
	}

	if raw.Days.Location == nil {
		return fmt.Errorf("days are required")
	}

	start, err := ParseClockTime(raw.Start, raw.Days.Location)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := ParseClockTime(raw.End, raw.Days.Location)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}

	d.ClockTimePeriod = ClockTimePeriod{Start: start, End: end}
	d.Days = raw.Days

	return nil
}
