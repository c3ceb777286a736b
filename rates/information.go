package rates

import (
	"math"
	"time"

	timeutils "github.com/cepro/tariffsensors/time_utils"
)

// Information describes the rate that applies right now, alongside statistics for the rest of the day.
type Information struct {
	AllRates    []Rate
	CurrentRate Block // the current rate, merged with any neighbouring rates that have the same price

	// These are calculated over the rates that lie wholly within the local day of the reference time, and are NaN
	// when there are no such rates.
	MinRateToday     float64
	MaxRateToday     float64
	AverageRateToday float64
}

// CurrentInformation returns the rate that applies at `now` along with today's min/max/average prices.
// If no rate covers `now` then the `ok` boolean is returned as false.
//
// "Today" is the local day of `now` in `now`'s own location, so the caller controls the timezone that the day
// statistics are based on.
func CurrentInformation(rates []Rate, now time.Time) (Information, bool) {

	blocks := Blocks(rates)
	i := blockIndexAt(blocks, now)
	if i < 0 {
		return Information{}, false
	}

	sorted := Sorted(rates)
	minRate, maxRate, averageRate := dayStatistics(sorted, timeutils.DayPeriod(now))

	return Information{
		AllRates:         sorted,
		CurrentRate:      blocks[i],
		MinRateToday:     minRate,
		MaxRateToday:     maxRate,
		AverageRateToday: averageRate,
	}, true
}

// PreviousInformation returns the block of rates that came immediately before the current block.
func PreviousInformation(rates []Rate, now time.Time) (Block, bool) {
	blocks := Blocks(rates)
	i := blockIndexAt(blocks, now)
	if i < 1 {
		return Block{}, false
	}
	return blocks[i-1], true
}

// NextInformation returns the block of rates that will follow the current block.
func NextInformation(rates []Rate, now time.Time) (Block, bool) {
	blocks := Blocks(rates)
	i := blockIndexAt(blocks, now)
	if i < 0 || i+1 >= len(blocks) {
		return Block{}, false
	}
	return blocks[i+1], true
}

// blockIndexAt returns the index of the block containing `t`, or -1 if there is none.
func blockIndexAt(blocks []Block, t time.Time) int {
	for i, block := range blocks {
		if block.Period().Contains(t) {
			return i
		}
	}
	return -1
}

// dayStatistics returns the min, max and average price of the rates that lie wholly within `day`.
func dayStatistics(rates []Rate, day timeutils.Period) (float64, float64, float64) {
	minRate := math.NaN()
	maxRate := math.NaN()
	total := 0.0
	count := 0

	for _, rate := range rates {
		if !day.ContainsPeriod(rate.Period()) {
			continue
		}
		if count == 0 || rate.ValueIncVat < minRate {
			minRate = rate.ValueIncVat
		}
		if count == 0 || rate.ValueIncVat > maxRate {
			maxRate = rate.ValueIncVat
		}
		total += rate.ValueIncVat
		count++
	}

	if count == 0 {
		return minRate, maxRate, math.NaN()
	}
	return minRate, maxRate, total / float64(count)
}
