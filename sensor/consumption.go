package sensor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cepro/tariffsensors/consumption"
	"github.com/cepro/tariffsensors/rates"
	timeutils "github.com/cepro/tariffsensors/time_utils"
)

// ConsumptionReader provides the consumption intervals that lie in a period, e.g. a consumption.Accumulator.
type ConsumptionReader interface {
	Consumptions(period timeutils.Period) []consumption.Consumption
}

// sourceReader adapts a Source of consumptions (e.g. a coordinator polling the API) into a ConsumptionReader.
type sourceReader struct {
	source Source[[]consumption.Consumption]
}

func (r sourceReader) Consumptions(period timeutils.Period) []consumption.Consumption {
	consumptions, ok := r.source.Data()
	if !ok {
		return nil
	}
	return consumption.Within(consumptions, period)
}

// periodFunc returns the accumulation period of a sensor, given the current time.
type periodFunc func(now time.Time) timeutils.Period

// convertFunc converts a consumption value, e.g. from m3 to kWh.
type convertFunc func(float64) float64

func convertAll(consumptions []consumption.Consumption, convert convertFunc) []consumption.Consumption {
	if convert == nil {
		return consumptions
	}
	converted := make([]consumption.Consumption, 0, len(consumptions))
	for _, c := range consumptions {
		c.Value = convert(c.Value)
		converted = append(converted, c)
	}
	return converted
}

// consumptionSensor reports the total consumption over the day.
type consumptionSensor struct {
	base
	meter        meterAttributes
	consumptions ConsumptionReader
	period       periodFunc
	convert      convertFunc
	clock        Clock

	// when set, the consumption is only reported while the rates and standing charge are also available, so that it
	// stays in step with the cost sensor
	rates          Source[[]rates.Rate]
	standingCharge Source[float64]
}

func (s *consumptionSensor) tariffAvailable() bool {
	if s.rates == nil || s.standingCharge == nil {
		return true
	}
	rateData, ok := s.rates.Data()
	if !ok || len(rateData) == 0 {
		return false
	}
	_, ok = s.standingCharge.Data()
	return ok
}

func (s *consumptionSensor) within() []consumption.Consumption {
	return convertAll(s.consumptions.Consumptions(s.period(s.clock())), s.convert)
}

func (s *consumptionSensor) State() (float64, bool) {
	if !s.tariffAvailable() {
		return 0, false
	}
	within := s.within()
	if len(within) == 0 {
		return 0, false
	}
	return consumption.Total(within), true
}

func (s *consumptionSensor) Attributes() map[string]interface{} {
	attributes := s.meter.toMap()

	if !s.tariffAvailable() {
		return attributes
	}
	within := consumption.Sorted(s.within())
	if len(within) == 0 {
		return attributes
	}

	attributes["total"] = consumption.Total(within)
	attributes["last_calculated_timestamp"] = formatTime(within[len(within)-1].IntervalEnd)

	charges := make([]map[string]interface{}, 0, len(within))
	for _, c := range within {
		charges = append(charges, map[string]interface{}{
			"from":        formatTime(c.IntervalStart),
			"to":          formatTime(c.IntervalEnd),
			"consumption": c.Value,
		})
	}
	attributes["charges"] = charges

	return attributes
}

// LastReset is the start of the earliest consumption interval, or the start of the period when there is none.
func (s *consumptionSensor) LastReset() time.Time {
	within := consumption.Sorted(s.within())
	if len(within) == 0 {
		return s.period(s.clock()).Start
	}
	return within[0].IntervalStart
}

// costSensor reports the total cost of the consumption over the day, including the standing charge.
type costSensor struct {
	base
	meter          meterAttributes
	tariffCode     string
	consumptions   ConsumptionReader
	period         periodFunc
	convert        convertFunc
	rates          Source[[]rates.Rate]
	standingCharge Source[float64]
	clock          Clock

	// reuseResult is set for periods that are complete, so that the cost is only recalculated when the consumption
	// data changes
	reuseResult bool

	lock             sync.Mutex
	last             *consumption.Result
	lastConsumptions []consumption.Consumption
	lastPeriod       timeutils.Period
	lastErrText      string
	logger           *slog.Logger
}

func (s *costSensor) result() *consumption.Result {
	now := s.clock()
	period := s.period(now)

	within := convertAll(s.consumptions.Consumptions(period), s.convert)
	rateData, _ := s.rates.Data()

	var standingCharge *float64
	if sc, ok := s.standingCharge.Data(); ok {
		standingCharge = &sc
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if !period.Equal(s.lastPeriod) {
		s.last = nil
		s.lastPeriod = period
	}

	var lastReset time.Time
	if s.reuseResult && s.last != nil && sameConsumptions(s.lastConsumptions, within) {
		lastReset = s.last.LastReset
	}

	result, err := consumption.CalculateCost(within, rateData, standingCharge, lastReset, s.tariffCode)
	if err != nil {
		// only log each distinct failure once, as this is evaluated on every update
		if err.Error() != s.lastErrText {
			s.logger.Warn("Failed to calculate cost", "error", err)
			s.lastErrText = err.Error()
		}
		s.last = nil
		return nil
	}
	s.lastErrText = ""

	if result == nil {
		if lastReset.IsZero() {
			s.last = nil
		}
		return s.last
	}

	s.last = result
	s.lastConsumptions = within
	return result
}

// sameConsumptions returns true if both slices hold the same intervals with the same values.
func sameConsumptions(a, b []consumption.Consumption) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].IntervalStart.Equal(b[i].IntervalStart) || !a[i].IntervalEnd.Equal(b[i].IntervalEnd) || a[i].Value != b[i].Value {
			return false
		}
	}
	return true
}

func (s *costSensor) State() (float64, bool) {
	result := s.result()
	if result == nil {
		return 0, false
	}
	return result.TotalCost, true
}

func (s *costSensor) Attributes() map[string]interface{} {
	attributes := s.meter.toMap()
	attributes["tariff_code"] = s.tariffCode

	result := s.result()
	if result == nil {
		return attributes
	}

	attributes["standing_charge"] = result.StandingCharge
	attributes["total_without_standing_charge"] = result.TotalCostWithoutStandingCharge
	attributes["total"] = result.TotalCost
	attributes["total_consumption"] = result.TotalConsumption
	attributes["last_calculated_timestamp"] = formatTime(result.LastCalculatedTimestamp)

	charges := make([]map[string]interface{}, 0, len(result.Charges))
	for _, charge := range result.Charges {
		charges = append(charges, map[string]interface{}{
			"from":        formatTime(charge.From),
			"to":          formatTime(charge.To),
			"rate":        charge.Rate,
			"consumption": charge.Consumption,
			"cost":        charge.Cost,
		})
	}
	attributes["charges"] = charges

	if result.OffPeak != nil {
		attributes["total_consumption_off_peak"] = result.OffPeak.ConsumptionOffPeak
		attributes["total_consumption_peak"] = result.OffPeak.ConsumptionPeak
		attributes["total_cost_off_peak"] = result.OffPeak.CostOffPeak
		attributes["total_cost_peak"] = result.OffPeak.CostPeak
	}

	return attributes
}

func (s *costSensor) LastReset() time.Time {
	if result := s.result(); result != nil {
		return result.LastReset
	}
	return s.period(s.clock()).Start
}
