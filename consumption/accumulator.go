package consumption

import (
	"sync"
	"time"

	timeutils "github.com/cepro/tariffsensors/time_utils"
)

const (
	accumulatorRetention = 48 * time.Hour
)

// Accumulator turns readings of a meter's cumulative energy register into half-hourly consumption intervals.
// The register value at each half-hour boundary is linearly interpolated between the readings either side of it.
type Accumulator struct {
	lock sync.RWMutex

	started       bool
	boundaryTime  time.Time // start of the half hour currently being accumulated
	boundaryValue float64   // register value at `boundaryTime`
	lastTime      time.Time
	lastValue     float64

	intervals []Consumption // completed half hours, oldest first
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add records a reading of the cumulative register (kWh) taken at `t`. Readings must be added in time order; older
// readings are ignored. A register value lower than the previous one is treated as a meter reset and restarts
// accumulation from the current half hour.
func (a *Accumulator) Add(t time.Time, register float64) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.started && !t.After(a.lastTime) {
		return
	}

	if !a.started || register < a.lastValue {
		a.started = true
		a.boundaryTime = timeutils.FloorHH(t)
		a.boundaryValue = register
		a.lastTime = t
		a.lastValue = register
		return
	}

	hh := timeutils.FloorHH(t)
	if hh.After(a.boundaryTime) {
		startValue := a.boundaryValue
		for start := a.boundaryTime; start.Before(hh); start = start.Add(timeutils.ThirtyMins) {
			end := start.Add(timeutils.ThirtyMins)
			endValue := interpolate(a.lastTime, a.lastValue, t, register, end)
			a.intervals = append(a.intervals, Consumption{
				IntervalStart: start,
				IntervalEnd:   end,
				Value:         endValue - startValue,
			})
			startValue = endValue
		}
		a.boundaryTime = hh
		a.boundaryValue = startValue
		a.prune(t)
	}

	a.lastTime = t
	a.lastValue = register
}

// Consumptions returns the half-hour intervals that lie within `period`. The half hour in progress is included as a
// partial interval that ends at the latest reading.
func (a *Accumulator) Consumptions(period timeutils.Period) []Consumption {
	a.lock.RLock()
	defer a.lock.RUnlock()

	consumptions := Within(a.intervals, period)

	if a.started && a.lastTime.After(a.boundaryTime) {
		partial := Consumption{
			IntervalStart: a.boundaryTime,
			IntervalEnd:   a.lastTime,
			Value:         a.lastValue - a.boundaryValue,
		}
		if period.ContainsPeriod(partial.Period()) {
			consumptions = append(consumptions, partial)
		}
	}

	return consumptions
}

// prune drops completed intervals that are too old to be of interest.
func (a *Accumulator) prune(now time.Time) {
	cutoff := now.Add(-accumulatorRetention)
	i := 0
	for i < len(a.intervals) && a.intervals[i].IntervalEnd.Before(cutoff) {
		i++
	}
	a.intervals = a.intervals[i:]
}

// interpolate returns the value at `t` on the straight line between (t0, v0) and (t1, v1).
func interpolate(t0 time.Time, v0 float64, t1 time.Time, v1 float64, t time.Time) float64 {
	span := t1.Sub(t0)
	if span <= 0 {
		return v1
	}
	return v0 + (v1-v0)*float64(t.Sub(t0))/float64(span)
}
