package sensor

import (
	"time"

	"github.com/cepro/tariffsensors/consumption"
	"github.com/cepro/tariffsensors/rates"
	"github.com/cepro/tariffsensors/repository"
	timeutils "github.com/cepro/tariffsensors/time_utils"
)

type staticSource[T any] struct {
	data T
	ok   bool
}

func (s staticSource[T]) Data() (T, bool) {
	return s.data, s.ok
}

func available[T any](data T) staticSource[T] {
	return staticSource[T]{data: data, ok: true}
}

func unavailable[T any]() staticSource[T] {
	return staticSource[T]{}
}

// changingSource can have its data replaced after the sensors have been created.
type changingSource[T any] struct {
	data T
}

func (s *changingSource[T]) Data() (T, bool) {
	return s.data, true
}

type staticReader []consumption.Consumption

func (r staticReader) Consumptions(period timeutils.Period) []consumption.Consumption {
	return consumption.Within(r, period)
}

type memoryStore struct {
	states map[string]repository.SensorState
}

func newMemoryStore() *memoryStore {
	return &memoryStore{states: make(map[string]repository.SensorState)}
}

func (m *memoryStore) GetSensorState(sensorID string) (repository.SensorState, bool, error) {
	state, ok := m.states[sensorID]
	return state, ok, nil
}

func (m *memoryStore) SaveSensorState(state repository.SensorState) error {
	m.states[state.SensorID] = state
	return nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time {
		return t
	}
}

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

func createConsumptionData(from, to time.Time, value float64) []consumption.Consumption {
	var consumptions []consumption.Consumption
	for t := from; t.Before(to); t = t.Add(30 * time.Minute) {
		consumptions = append(consumptions, consumption.Consumption{
			IntervalStart: t,
			IntervalEnd:   t.Add(30 * time.Minute),
			Value:         value,
		})
	}
	return consumptions
}

func mustParseTime(str string) time.Time {
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		panic(err)
	}
	return t
}

func sensorByID(sensors []Sensor, uniqueID string) Sensor {
	for _, s := range sensors {
		if s.UniqueID() == uniqueID {
			return s
		}
	}
	return nil
}
