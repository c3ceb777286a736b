package sensor

import (
	"math"

	"github.com/cepro/tariffsensors/rates"
)

type rateKind int

const (
	currentRate rateKind = iota
	previousRate
	nextRate
)

// rateSensor reports the current, previous or next unit rate in £/kWh.
type rateSensor struct {
	base
	kind       rateKind
	meter      meterAttributes
	tariffCode string
	rates      Source[[]rates.Rate]
	clock      Clock
}

func (s *rateSensor) block() (rates.Block, rates.Information, bool) {
	rateData, ok := s.rates.Data()
	if !ok {
		return rates.Block{}, rates.Information{}, false
	}

	now := s.clock()
	switch s.kind {
	case currentRate:
		info, ok := rates.CurrentInformation(rateData, now)
		return info.CurrentRate, info, ok
	case previousRate:
		block, ok := rates.PreviousInformation(rateData, now)
		return block, rates.Information{}, ok
	default:
		block, ok := rates.NextInformation(rateData, now)
		return block, rates.Information{}, ok
	}
}

func (s *rateSensor) State() (float64, bool) {
	block, _, ok := s.block()
	if !ok {
		return 0, false
	}
	return rates.PenceToPounds(block.ValueIncVat), true
}

func (s *rateSensor) Attributes() map[string]interface{} {
	attributes := s.meter.toMap()
	attributes["tariff"] = s.tariffCode

	block, info, ok := s.block()
	if !ok {
		return attributes
	}

	attributes["valid_from"] = formatTime(block.ValidFrom)
	attributes["valid_to"] = formatTime(block.ValidTo)
	attributes["is_capped"] = block.IsCapped

	if s.kind != currentRate {
		return attributes
	}

	addPounds(attributes, "current_day_min_rate", info.MinRateToday)
	addPounds(attributes, "current_day_max_rate", info.MaxRateToday)
	addPounds(attributes, "current_day_average_rate", info.AverageRateToday)

	allRates := make([]map[string]interface{}, 0, len(info.AllRates))
	for _, rate := range info.AllRates {
		allRates = append(allRates, map[string]interface{}{
			"start":         formatTime(rate.ValidFrom),
			"end":           formatTime(rate.ValidTo),
			"value_inc_vat": rates.PenceToPounds(rate.ValueIncVat),
			"is_capped":     rate.IsCapped,
		})
	}
	attributes["all_rates"] = allRates

	return attributes
}

// addPounds adds the pence value to the attributes in pounds, unless it is unknown.
func addPounds(attributes map[string]interface{}, key string, pence float64) {
	if math.IsNaN(pence) {
		return
	}
	attributes[key] = rates.PenceToPounds(pence)
}

// standingChargeSensor reports the daily standing charge in £.
type standingChargeSensor struct {
	base
	meter          meterAttributes
	tariffCode     string
	standingCharge Source[float64]
}

func (s *standingChargeSensor) State() (float64, bool) {
	pence, ok := s.standingCharge.Data()
	if !ok {
		return 0, false
	}
	return rates.PenceToPounds(pence), true
}

func (s *standingChargeSensor) Attributes() map[string]interface{} {
	attributes := s.meter.toMap()
	attributes["tariff"] = s.tariffCode
	return attributes
}
