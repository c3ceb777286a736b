package consumption

import (
	"sort"
	"time"

	timeutils "github.com/cepro/tariffsensors/time_utils"
	"github.com/shopspring/decimal"
)

// Consumption is the energy used over an interval, as reported by a meter. The unit is kWh for electricity meters
// and for SMETS1 gas meters, and m3 for SMETS2 gas meters.
type Consumption struct {
	IntervalStart time.Time `json:"interval_start"`
	IntervalEnd   time.Time `json:"interval_end"`
	Value         float64   `json:"consumption"`
}

// Period returns the interval that the consumption was measured over.
func (c Consumption) Period() timeutils.Period {
	return timeutils.Period{Start: c.IntervalStart, End: c.IntervalEnd}
}

// Sorted returns a copy of the consumptions ordered by interval start.
func Sorted(consumptions []Consumption) []Consumption {
	sorted := make([]Consumption, len(consumptions))
	copy(sorted, consumptions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].IntervalStart.Before(sorted[j].IntervalStart)
	})
	return sorted
}

// Within returns the consumptions whose interval lies wholly inside `period`.
func Within(consumptions []Consumption, period timeutils.Period) []Consumption {
	var within []Consumption
	for _, c := range consumptions {
		if period.ContainsPeriod(c.Period()) {
			within = append(within, c)
		}
	}
	return within
}

// ConvertM3ToKwh converts a gas volume into energy using the standard volume correction factor of 1.02264 and the
// given calorific value (MJ/m3), rounded to 3 decimal places.
func ConvertM3ToKwh(value, calorificValue float64) float64 {
	kwh := decimal.NewFromFloat(value).
		Mul(decimal.NewFromFloat(1.02264)).
		Mul(decimal.NewFromFloat(calorificValue)).
		Div(decimal.NewFromFloat(3.6))
	result, _ := kwh.Round(3).Float64()
	return result
}

// roundPounds converts an amount in pence to pounds, rounded to 2 decimal places.
func roundPounds(pence float64) float64 {
	pounds, _ := decimal.NewFromFloat(pence).Div(decimal.NewFromInt(100)).Round(2).Float64()
	return pounds
}

// Total returns the sum of the consumption values, rounded to 3 decimal places.
func Total(consumptions []Consumption) float64 {
	total := decimal.Zero
	for _, c := range consumptions {
		total = total.Add(decimal.NewFromFloat(c.Value))
	}
	result, _ := total.Round(3).Float64()
	return result
}
