package rates

import (
	"time"

	"github.com/cepro/tariffsensors/config"
	timeutils "github.com/cepro/tariffsensors/time_utils"
)

// FromTimedRates builds half-hourly rates covering `period` from a locally configured time-of-use tariff.
// Each half hour takes the first timed rate that applies at its start, or `defaultRate` if none apply.
func FromTimedRates(period timeutils.Period, timedRates []config.TimedRate, defaultRate float64) []Rate {
	var generated []Rate

	for t := timeutils.FloorHH(period.Start); t.Before(period.End); t = t.Add(timeutils.ThirtyMins) {
		value, found := config.FirstTimedRate(t, timedRates)
		if !found {
			value = defaultRate
		}
		generated = append(generated, Rate{
			ValidFrom:   t,
			ValidTo:     t.Add(timeutils.ThirtyMins),
			ValueIncVat: value,
		})
	}

	return generated
}

// Window returns the period from the start of the day before `now` until the end of the day after `now`, which is
// the span of rates that the previous/current/next rate sensors need.
func Window(now time.Time) timeutils.Period {
	today := timeutils.DayPeriod(now)
	return timeutils.Period{
		Start: today.Start.AddDate(0, 0, -1),
		End:   today.End.AddDate(0, 0, 1),
	}
}
