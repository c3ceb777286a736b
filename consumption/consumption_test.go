package consumption

import (
	"testing"
	"time"

	timeutils "github.com/cepro/tariffsensors/time_utils"
	"github.com/stretchr/testify/assert"
)

func TestConvertM3ToKwh(t *testing.T) {

	type subTest struct {
		name           string
		value          float64
		calorificValue float64
		expected       float64
	}

	subTests := []subTest{
		{"Typical", 1, 40, 11.363},
		{"Zero", 0, 40, 0},
		{"Larger volume", 12.5, 39.1, 138.838},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			assert.Equal(t, subTest.expected, ConvertM3ToKwh(subTest.value, subTest.calorificValue))
		})
	}
}

func TestWithin(t *testing.T) {
	consumptions := createConsumptionData(mustParseTime("2022-02-27T23:00:00Z"), mustParseTime("2022-02-28T01:00:00Z"), 1)

	within := Within(consumptions, timeutils.Period{Start: mustParseTime("2022-02-28T00:00:00Z"), End: mustParseTime("2022-02-28T01:00:00Z")})
	assert.Len(t, within, 2)
	assert.True(t, within[0].IntervalStart.Equal(mustParseTime("2022-02-28T00:00:00Z")))
}

func TestTotal(t *testing.T) {
	consumptions := []Consumption{{Value: 0.1}, {Value: 0.2}, {Value: 0.0004}}
	assert.Equal(t, 0.3, Total(consumptions))
	assert.Equal(t, 0.0, Total(nil))
}

func TestAccumulator(t *testing.T) {
	acc := NewAccumulator()
	start := mustParseTime("2022-02-28T00:10:00Z")

	// 1kWh every 10 minutes
	for i := 0; i <= 12; i++ {
		acc.Add(start.Add(time.Duration(i)*10*time.Minute), 100+float64(i))
	}

	all := timeutils.Period{Start: mustParseTime("2022-02-28T00:00:00Z"), End: mustParseTime("2022-03-01T00:00:00Z")}
	consumptions := acc.Consumptions(all)

	// 00:00 (partial, started at 00:10), 00:30, 01:00, 01:30, and the in progress 02:00 half hour
	assert.Len(t, consumptions, 5)
	assert.True(t, consumptions[0].IntervalStart.Equal(mustParseTime("2022-02-28T00:00:00Z")))
	assert.InDelta(t, 2, consumptions[0].Value, 1e-9)
	assert.InDelta(t, 3, consumptions[1].Value, 1e-9)
	assert.InDelta(t, 3, consumptions[2].Value, 1e-9)
	assert.InDelta(t, 3, consumptions[3].Value, 1e-9)

	partial := consumptions[4]
	assert.True(t, partial.IntervalStart.Equal(mustParseTime("2022-02-28T02:00:00Z")))
	assert.True(t, partial.IntervalEnd.Equal(mustParseTime("2022-02-28T02:10:00Z")))
	assert.InDelta(t, 1, partial.Value, 1e-9)

	total := 0.0
	for _, c := range consumptions {
		total += c.Value
	}
	assert.InDelta(t, 12, total, 1e-9)
}

func TestAccumulatorInterpolatesAcrossGaps(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(mustParseTime("2022-02-28T00:15:00Z"), 10)
	// no readings for over an hour, during which 6kWh was used
	acc.Add(mustParseTime("2022-02-28T01:45:00Z"), 16)

	consumptions := acc.Consumptions(timeutils.Period{Start: mustParseTime("2022-02-28T00:00:00Z"), End: mustParseTime("2022-03-01T00:00:00Z")})
	assert.Len(t, consumptions, 4)
	assert.InDelta(t, 1, consumptions[0].Value, 1e-9)
	assert.InDelta(t, 2, consumptions[1].Value, 1e-9)
	assert.InDelta(t, 2, consumptions[2].Value, 1e-9)
	assert.InDelta(t, 1, consumptions[3].Value, 1e-9)
}

func TestAccumulatorMeterReset(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(mustParseTime("2022-02-28T00:05:00Z"), 500)
	acc.Add(mustParseTime("2022-02-28T00:20:00Z"), 501)
	acc.Add(mustParseTime("2022-02-28T00:40:00Z"), 0.5) // register reset
	acc.Add(mustParseTime("2022-02-28T00:50:00Z"), 1.5)
	acc.Add(mustParseTime("2022-02-28T00:45:00Z"), 1.0) // out of order, ignored

	consumptions := acc.Consumptions(timeutils.Period{Start: mustParseTime("2022-02-28T00:00:00Z"), End: mustParseTime("2022-03-01T00:00:00Z")})
	assert.Len(t, consumptions, 1)
	assert.True(t, consumptions[0].IntervalStart.Equal(mustParseTime("2022-02-28T00:30:00Z")))
	assert.InDelta(t, 1.0, consumptions[0].Value, 1e-9)
}

func TestAccumulatorClockChange(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("Could not load location: %v", err)
	}

	type subTest struct {
		name              string
		from              time.Time
		to                time.Time
		expectedIntervals int
	}

	subTests := []subTest{
		// 01:00-02:00 happens twice, first in BST then in GMT
		{"Clocks go back", mustParseTime("2022-10-30T00:00:00Z"), mustParseTime("2022-10-30T03:00:00Z"), 6},
		// 01:00-02:00 doesn't happen
		{"Clocks go forward", mustParseTime("2022-03-27T00:00:00Z"), mustParseTime("2022-03-27T02:00:00Z"), 4},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			acc := NewAccumulator()

			// 0.1kWh every minute, read in local time
			i := 0
			for ts := subTest.from; !ts.After(subTest.to); ts = ts.Add(time.Minute) {
				acc.Add(ts.In(london), 0.1*float64(i))
				i++
			}

			day := timeutils.DayPeriod(subTest.from.In(london))
			consumptions := acc.Consumptions(day)

			assert.Len(t, consumptions, subTest.expectedIntervals)
			for n, c := range consumptions {
				expectedStart := subTest.from.Add(time.Duration(n) * 30 * time.Minute)
				assert.True(t, c.IntervalStart.Equal(expectedStart), "interval %d starts at %v, expected %v", n, c.IntervalStart, expectedStart)
				assert.InDelta(t, 3, c.Value, 1e-9)
			}
		})
	}
}

func TestAccumulatorEmpty(t *testing.T) {
	acc := NewAccumulator()
	assert.Empty(t, acc.Consumptions(timeutils.Period{Start: mustParseTime("2022-02-28T00:00:00Z"), End: mustParseTime("2022-03-01T00:00:00Z")}))
}

// createConsumptionData returns half-hourly consumptions between `from` and `to`, all with the given value.
func createConsumptionData(from, to time.Time, value float64) []Consumption {
	var consumptions []Consumption
	for t := from; t.Before(to); t = t.Add(30 * time.Minute) {
		consumptions = append(consumptions, Consumption{
			IntervalStart: t,
			IntervalEnd:   t.Add(30 * time.Minute),
			Value:         value,
		})
	}
	return consumptions
}

// mustParseTime returns the time.Time associated with the given string or panics.
func mustParseTime(str string) time.Time {
	time, err := time.Parse(time.RFC3339, str)
	if err != nil {
		panic(err)
	}
	return time
}
