package rates

import (
	"math"
	"sort"
	"time"

	timeutils "github.com/cepro/tariffsensors/time_utils"
	"github.com/shopspring/decimal"
)

// Rate is a unit price that applies for a window of time. Octopus publishes these half-hourly for dynamic tariffs,
// and as longer windows (sometimes open ended) for fixed and day/night tariffs.
type Rate struct {
	ValidFrom   time.Time `json:"valid_from"`
	ValidTo     time.Time `json:"valid_to"`
	ValueIncVat float64   `json:"value_inc_vat"` // p/kWh
	IsCapped    bool      `json:"is_capped"`
}

// Period returns the window that the rate applies to.
func (r Rate) Period() timeutils.Period {
	return timeutils.Period{Start: r.ValidFrom, End: r.ValidTo}
}

// Block is a run of contiguous rates that all share the same price.
type Block struct {
	ValidFrom   time.Time
	ValidTo     time.Time
	ValueIncVat float64
	IsCapped    bool
	Rates       []Rate
}

// Period returns the window that the block covers.
func (b Block) Period() timeutils.Period {
	return timeutils.Period{Start: b.ValidFrom, End: b.ValidTo}
}

// Sorted returns a copy of the rates ordered by their start time.
func Sorted(rates []Rate) []Rate {
	sorted := make([]Rate, len(rates))
	copy(sorted, rates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ValidFrom.Before(sorted[j].ValidFrom)
	})
	return sorted
}

// Blocks merges the given rates into blocks of contiguous rates with the same price.
// A gap between two rates always starts a new block, even if the price is unchanged.
func Blocks(rates []Rate) []Block {
	var blocks []Block

	for _, rate := range Sorted(rates) {
		n := len(blocks)
		if n > 0 && blocks[n-1].ValueIncVat == rate.ValueIncVat && blocks[n-1].ValidTo.Equal(rate.ValidFrom) {
			last := &blocks[n-1]
			last.ValidTo = rate.ValidTo
			last.IsCapped = last.IsCapped || rate.IsCapped
			last.Rates = append(last.Rates, rate)
			continue
		}

		blocks = append(blocks, Block{
			ValidFrom:   rate.ValidFrom,
			ValidTo:     rate.ValidTo,
			ValueIncVat: rate.ValueIncVat,
			IsCapped:    rate.IsCapped,
			Rates:       []Rate{rate},
		})
	}

	return blocks
}

// RateAt returns the rate whose window contains `t`.
func RateAt(rates []Rate, t time.Time) (Rate, bool) {
	for _, rate := range rates {
		if rate.Period().Contains(t) {
			return rate, true
		}
	}
	return Rate{}, false
}

// ApplyPriceCap returns a copy of the rates where any value above `priceCap` is replaced by `priceCap` and marked as capped.
func ApplyPriceCap(rates []Rate, priceCap float64) []Rate {
	capped := make([]Rate, 0, len(rates))
	for _, rate := range rates {
		if rate.ValueIncVat > priceCap {
			rate.ValueIncVat = priceCap
			rate.IsCapped = true
		}
		capped = append(capped, rate)
	}
	return capped
}

// OffPeakRate returns the cheaper of the two prices in a day/night rate set.
// If the rates do not contain exactly two distinct prices then there is no off peak rate.
func OffPeakRate(rates []Rate) (float64, bool) {
	values := make(map[float64]struct{})
	for _, rate := range rates {
		values[rate.ValueIncVat] = struct{}{}
	}
	if len(values) != 2 {
		return 0, false
	}

	first := true
	lowest := 0.0
	for value := range values {
		if first || value < lowest {
			lowest = value
			first = false
		}
	}
	return lowest, true
}

// PenceToPounds converts a p/kWh (or pence) value to £/kWh (or pounds), rounded to 5 decimal places.
// An unknown (NaN) value stays unknown.
func PenceToPounds(pence float64) float64 {
	if math.IsNaN(pence) || math.IsInf(pence, 0) {
		return pence
	}
	pounds, _ := decimal.NewFromFloat(pence).Div(decimal.NewFromInt(100)).Round(5).Float64()
	return pounds
}
