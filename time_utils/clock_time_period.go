package timeutils

import (
	"time"
)

// ClockTimePeriod represents a period of time that is defined by local clock time, without any date information,  e.g. "4pm to 6pm".
// An End of 00:00 means midnight at the end of the day.
type ClockTimePeriod struct {
	Start ClockTime
	End   ClockTime
}

// AbsolutePeriod returns the equivilent `Period` instance for the given `ClockTimePeriod`, using `t` as the
// reference time that must be within the `ClockTimePeriod`.
// If `t` is outside of the `ClockTimePeriod` then the `ok` boolean is returned as false.
//
// This function is inclusive of the Period.Start, but exclusive of the Period.End.
//
// For example, calling on a ClockTimePeriod of "4pm to 6pm" using a reference `t` of "2023/10/19 16:53:00" would
// yield the period: "2023/10/19 16:00:00 to 2023/10/19 18:00:00".
// A period that ends before it starts crosses midnight, so "11:30pm to 6:30am" with a reference of
// "2023/10/20 02:00:00" yields "2023/10/19 23:30:00 to 2023/10/20 06:30:00".
func (p *ClockTimePeriod) AbsolutePeriod(t time.Time) (Period, bool) {

	if p.Start.Location.String() != p.End.Location.String() {
		panic("Clock time period must start and end in the same timezone")
	}

	// Make sure that `t` is in the relevant timezone for the ClockTimePeriod configuration, otherwise the day can be wrong
	// if it is near midnight and there is a timezone offset
	t = t.In(p.Start.Location)

	if p.CrossesMidnight() {
		// the period either started yesterday and ends today, or starts today and ends tomorrow
		for _, startDay := range []time.Time{StartOfDay(t).AddDate(0, 0, -1), StartOfDay(t)} {
			endDay := startDay.AddDate(0, 0, 1)
			period := Period{
				Start: p.Start.OnDate(startDay.Date()),
				End:   p.End.OnDate(endDay.Date()),
			}
			if period.Contains(t) {
				return period, true
			}
		}
		return Period{}, false
	}

	year, month, day := t.Date()
	period := Period{
		Start: p.Start.OnDate(year, month, day),
		End:   p.End.OnDate(year, month, day),
	}
	if p.End.sinceMidnight() == 0 {
		period.End = StartOfDay(t).AddDate(0, 0, 1)
	}

	if !period.Contains(t) {
		return Period{}, false
	}

	return period, true
}

// CrossesMidnight returns true if the period ends on the day after it starts, e.g. "11:30pm to 6:30am".
// An End of 00:00 is the end of the start day, not a crossing.
func (p *ClockTimePeriod) CrossesMidnight() bool {
	endsAtMidnight := p.End.sinceMidnight() == 0
	return !endsAtMidnight && p.End.sinceMidnight() < p.Start.sinceMidnight()
}

// Contains returns true if the given t is contained in the ClockTimePeriod
func (p *ClockTimePeriod) Contains(t time.Time) bool {
	_, contains := p.AbsolutePeriod(t)
	return contains
}
