package sensor

import (
	"fmt"
	"time"

	"github.com/cepro/tariffsensors/repository"
)

// StateStore persists the last known state of each sensor, e.g. a repository.Repository.
type StateStore interface {
	GetSensorState(sensorID string) (repository.SensorState, bool, error)
	SaveSensorState(state repository.SensorState) error
}

// restoredSensor reports the stored state of a sensor until the sensor is able to calculate its own state.
type restoredSensor struct {
	Sensor
	stored repository.SensorState
}

// Restore wraps each of the given sensors so that, if a state was stored for it before, that state is reported
// whenever the sensor has no state of its own.
func Restore(sensors []Sensor, store StateStore) ([]Sensor, error) {
	restored := make([]Sensor, 0, len(sensors))
	for _, s := range sensors {
		state, ok, err := store.GetSensorState(s.UniqueID())
		if err != nil {
			return nil, fmt.Errorf("get state of %s: %w", s.UniqueID(), err)
		}
		if !ok {
			restored = append(restored, s)
			continue
		}
		restored = append(restored, &restoredSensor{Sensor: s, stored: state})
	}
	return restored, nil
}

func (r *restoredSensor) State() (float64, bool) {
	if state, ok := r.Sensor.State(); ok {
		return state, true
	}
	return r.stored.State, true
}

func (r *restoredSensor) Attributes() map[string]interface{} {
	if _, ok := r.Sensor.State(); ok || r.stored.Attributes == nil {
		return r.Sensor.Attributes()
	}
	return r.stored.Attributes
}

func (r *restoredSensor) LastReset() time.Time {
	if _, ok := r.Sensor.State(); ok {
		return r.Sensor.LastReset()
	}
	return r.stored.LastReset
}

// stateOf converts a snapshot into the form that is persisted.
func stateOf(snapshot Snapshot) repository.SensorState {
	state := repository.SensorState{
		SensorID:   snapshot.UniqueID,
		State:      snapshot.State,
		Attributes: snapshot.Attributes,
	}
	if snapshot.LastReset != nil {
		state.LastReset = *snapshot.LastReset
	}
	return state
}
