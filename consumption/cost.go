package consumption

import (
	"fmt"
	"time"

	"github.com/cepro/tariffsensors/rates"
)

// Charge is the cost of a single consumption interval.
type Charge struct {
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Rate        float64   `json:"rate"` // £/kWh
	Consumption float64   `json:"consumption"`
	Cost        float64   `json:"cost"` // £
}

// OffPeakSplit breaks the totals down for day/night tariffs.
type OffPeakSplit struct {
	ConsumptionOffPeak float64
	ConsumptionPeak    float64
	CostOffPeak        float64 // £
	CostPeak           float64 // £
}

// Result is the accumulated consumption and cost over a set of consumption intervals.
type Result struct {
	StandingCharge                 float64 // £
	TotalCostWithoutStandingCharge float64 // £
	TotalCost                      float64 // £
	TotalConsumption               float64
	LastReset                      time.Time // the start of the earliest interval
	LastCalculatedTimestamp        time.Time // the end of the latest interval
	Charges                        []Charge
	OffPeak                        *OffPeakSplit // nil unless the rates have a distinct off peak price
}

// CalculateCost correlates each consumption interval with the rate that covers its start, and accumulates the
// consumption and cost.
//
// `standingCharge` is in pence and is added to the total once. A nil Result (with a nil error) is returned when there
// isn't enough data to calculate with, i.e. there is no consumption, no rates or no standing charge. It is also nil
// when `lastReset` is not before the earliest consumption interval, as the result would be unchanged since the last
// calculation; pass the zero time to always recalculate.
//
// An error is returned if a consumption interval isn't covered by any rate.
func CalculateCost(consumptions []Consumption, rateData []rates.Rate, standingCharge *float64, lastReset time.Time, tariffCode string) (*Result, error) {

	if len(consumptions) == 0 || len(rateData) == 0 || standingCharge == nil {
		return nil, nil
	}

	sorted := Sorted(consumptions)
	if !lastReset.IsZero() && !lastReset.Before(sorted[0].IntervalStart) {
		return nil, nil
	}

	offPeakRate, hasOffPeak := rates.OffPeakRate(rateData)

	totalCostInPence := 0.0
	totalConsumption := 0.0
	split := OffPeakSplit{}
	costOffPeakInPence := 0.0
	costPeakInPence := 0.0
	charges := make([]Charge, 0, len(sorted))

	for _, c := range sorted {
		rate, found := rates.RateAt(rateData, c.IntervalStart)
		if !found {
			return nil, fmt.Errorf("no rate for consumption between %s and %s for tariff %s", c.IntervalStart.Format(time.RFC3339), c.IntervalEnd.Format(time.RFC3339), tariffCode)
		}

		cost := rate.ValueIncVat * c.Value
		totalCostInPence += cost
		totalConsumption += c.Value

		if hasOffPeak {
			if rate.ValueIncVat == offPeakRate {
				split.ConsumptionOffPeak += c.Value
				costOffPeakInPence += cost
			} else {
				split.ConsumptionPeak += c.Value
				costPeakInPence += cost
			}
		}

		charges = append(charges, Charge{
			From:        c.IntervalStart,
			To:          c.IntervalEnd,
			Rate:        rates.PenceToPounds(rate.ValueIncVat),
			Consumption: c.Value,
			Cost:        roundPounds(cost),
		})
	}

	result := &Result{
		StandingCharge:                 roundPounds(*standingCharge),
		TotalCostWithoutStandingCharge: roundPounds(totalCostInPence),
		TotalCost:                      roundPounds(totalCostInPence + *standingCharge),
		TotalConsumption:               totalConsumption,
		LastReset:                      sorted[0].IntervalStart,
		LastCalculatedTimestamp:        sorted[len(sorted)-1].IntervalEnd,
		Charges:                        charges,
	}

	if hasOffPeak {
		split.CostOffPeak = roundPounds(costOffPeakInPence)
		split.CostPeak = roundPounds(costPeakInPence)
		result.OffPeak = &split
	}

	return result, nil
}
