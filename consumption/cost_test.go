package consumption

import (
	"testing"
	"time"

	"github.com/cepro/tariffsensors/rates"
	"github.com/stretchr/testify/assert"
)

const tariffCode = "E-1R-SUPER-GREEN-24M-21-07-30-A"

func TestCalculateCostNotEnoughData(t *testing.T) {
	standingCharge := 27.0
	from := mustParseTime("2022-02-28T00:00:00Z")
	to := mustParseTime("2022-03-01T00:00:00Z")
	consumptions := createConsumptionData(from, to, 1)
	rateData := createRateData(from, to, []float64{10, 20, 20, 30})

	type subTest struct {
		name           string
		consumptions   []Consumption
		rateData       []rates.Rate
		standingCharge *float64
		lastReset      time.Time
	}

	subTests := []subTest{
		{"No consumption", nil, rateData, &standingCharge, time.Time{}},
		{"No rates", consumptions, nil, &standingCharge, time.Time{}},
		{"No standing charge", consumptions, rateData, nil, time.Time{}},
		{"Last reset matches the first interval", consumptions, rateData, &standingCharge, from},
		{"Last reset is after the first interval", consumptions, rateData, &standingCharge, from.Add(time.Hour)},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			result, err := CalculateCost(subTest.consumptions, subTest.rateData, subTest.standingCharge, subTest.lastReset, tariffCode)
			assert.NoError(t, err)
			assert.Nil(t, result)
		})
	}
}

func TestCalculateCost(t *testing.T) {
	standingCharge := 25.0
	from := mustParseTime("2022-02-28T00:00:00Z")
	to := mustParseTime("2022-03-01T00:00:00Z")

	// consumption is given out of order to ensure it is sorted
	consumptions := createConsumptionData(from, to, 1)
	consumptions[0], consumptions[47] = consumptions[47], consumptions[0]

	// rates cover a wider window than the consumption
	rateData := createRateData(from.Add(-24*time.Hour), to.Add(24*time.Hour), []float64{10, 20, 20, 30})

	lastReset := mustParseTime("2022-02-27T00:00:00Z")
	result, err := CalculateCost(consumptions, rateData, &standingCharge, lastReset, tariffCode)
	assert.NoError(t, err)
	if !assert.NotNil(t, result) {
		return
	}

	assert.Equal(t, 48.0, result.TotalConsumption)
	assert.Equal(t, 9.6, result.TotalCostWithoutStandingCharge)
	assert.Equal(t, 9.85, result.TotalCost)
	assert.Equal(t, 0.25, result.StandingCharge)
	assert.True(t, result.LastReset.Equal(from))
	assert.True(t, result.LastCalculatedTimestamp.Equal(to))
	assert.Nil(t, result.OffPeak)

	assert.Len(t, result.Charges, 48)
	expectedRates := []float64{0.1, 0.2, 0.2, 0.3}
	for i, charge := range result.Charges {
		assert.True(t, charge.From.Equal(from.Add(time.Duration(i)*30*time.Minute)), "charge %d is out of order", i)
		assert.Equal(t, expectedRates[i%4], charge.Rate)
		assert.Equal(t, expectedRates[i%4], charge.Cost)
		assert.Equal(t, 1.0, charge.Consumption)
	}
}

func TestCalculateCostMissingRate(t *testing.T) {
	standingCharge := 25.0
	from := mustParseTime("2022-02-28T00:00:00Z")
	to := mustParseTime("2022-03-01T00:00:00Z")

	consumptions := createConsumptionData(from, to, 1)
	rateData := createRateData(from, to.Add(-time.Hour), []float64{10})

	result, err := CalculateCost(consumptions, rateData, &standingCharge, time.Time{}, tariffCode)
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "2022-02-28T23:00:00Z")
	assert.ErrorContains(t, err, tariffCode)
}

func TestCalculateCostOffPeak(t *testing.T) {
	standingCharge := 40.0
	from := mustParseTime("2022-02-28T00:00:00Z")
	to := mustParseTime("2022-02-28T02:00:00Z")

	consumptions := createConsumptionData(from, to, 1)
	consumptions[1].Value = 2
	rateData := createRateData(from, to, []float64{12, 30})

	result, err := CalculateCost(consumptions, rateData, &standingCharge, time.Time{}, "E-2R-VAR-22-11-01-A")
	assert.NoError(t, err)
	if !assert.NotNil(t, result) || !assert.NotNil(t, result.OffPeak) {
		return
	}

	assert.Equal(t, 2.0, result.OffPeak.ConsumptionOffPeak)
	assert.Equal(t, 3.0, result.OffPeak.ConsumptionPeak)
	assert.Equal(t, 0.24, result.OffPeak.CostOffPeak)
	assert.Equal(t, 0.9, result.OffPeak.CostPeak)
	assert.Equal(t, 1.14, result.TotalCostWithoutStandingCharge)
	assert.Equal(t, 1.54, result.TotalCost)
}

func TestCalculateCostVariableLengthRates(t *testing.T) {
	standingCharge := 0.0
	from := mustParseTime("2022-02-28T00:00:00Z")

	consumptions := createConsumptionData(from, from.Add(8*time.Hour), 0.5)
	rateData := []rates.Rate{
		{ValidFrom: from, ValidTo: from.Add(7 * time.Hour), ValueIncVat: 10},
		{ValidFrom: from.Add(7 * time.Hour), ValidTo: from.Add(24 * time.Hour), ValueIncVat: 30},
	}

	result, err := CalculateCost(consumptions, rateData, &standingCharge, time.Time{}, tariffCode)
	assert.NoError(t, err)
	if !assert.NotNil(t, result) {
		return
	}

	// 14 half hours at 10p and 2 at 30p
	assert.Equal(t, 8.0, result.TotalConsumption)
	assert.Equal(t, 1.0, result.TotalCost)
	assert.NotNil(t, result.OffPeak)
}

// createRateData returns half-hourly rates between `from` and `to`, cycling through the given `values`.
func createRateData(from, to time.Time, values []float64) []rates.Rate {
	var rateData []rates.Rate
	i := 0
	for t := from; t.Before(to); t = t.Add(30 * time.Minute) {
		rateData = append(rateData, rates.Rate{
			ValidFrom:   t,
			ValidTo:     t.Add(30 * time.Minute),
			ValueIncVat: values[i%len(values)],
		})
		i++
	}
	return rateData
}
