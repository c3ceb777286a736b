package sensor

import (
	"time"
)

const (
	DeviceClassMonetary = "monetary"
	DeviceClassEnergy   = "energy"
	DeviceClassGas      = "gas"

	StateClassTotal       = "total"
	StateClassMeasurement = "measurement"

	UnitPoundsPerKwh = "GBP/kWh"
	UnitPounds       = "GBP"
	UnitKwh          = "kWh"
	UnitCubicMetres  = "m³"
)

// Sensor is a single value that is exposed to Home Assistant.
type Sensor interface {
	UniqueID() string
	Name() string
	DeviceClass() string
	StateClass() string // empty for sensors without long term statistics
	Unit() string
	Icon() string

	// State returns the current value of the sensor, or false if it can't be calculated (e.g. data is not yet available)
	State() (float64, bool)
	Attributes() map[string]interface{}
	// LastReset returns the start of the accumulation period for "total" sensors, and the zero time otherwise
	LastReset() time.Time
}

// Source is anything that can provide the latest copy of some data, e.g. a coordinator.Coordinator.
type Source[T any] interface {
	Data() (T, bool)
}

// Clock returns the current time in the location that defines "today".
type Clock func() time.Time

// base implements the descriptive parts of the Sensor interface.
type base struct {
	uniqueID    string
	name        string
	deviceClass string
	stateClass  string
	unit        string
	icon        string
}

func (b *base) UniqueID() string    { return b.uniqueID }
func (b *base) Name() string        { return b.name }
func (b *base) DeviceClass() string { return b.deviceClass }
func (b *base) StateClass() string  { return b.stateClass }
func (b *base) Unit() string        { return b.unit }
func (b *base) Icon() string        { return b.icon }
func (b *base) LastReset() time.Time {
	return time.Time{}
}

// Snapshot is the state of a sensor at a point in time.
type Snapshot struct {
	UniqueID    string                 `json:"unique_id"`
	Name        string                 `json:"name"`
	DeviceClass string                 `json:"device_class"`
	StateClass  string                 `json:"state_class,omitempty"`
	Unit        string                 `json:"unit_of_measurement"`
	Icon        string                 `json:"icon"`
	State       float64                `json:"state"`
	Available   bool                   `json:"available"`
	Attributes  map[string]interface{} `json:"attributes"`
	LastReset   *time.Time             `json:"last_reset,omitempty"`
	Time        time.Time              `json:"time"`
}

// Take evaluates the sensor and returns a snapshot of it.
func Take(s Sensor, t time.Time) Snapshot {
	state, ok := s.State()
	snapshot := Snapshot{
		UniqueID:    s.UniqueID(),
		Name:        s.Name(),
		DeviceClass: s.DeviceClass(),
		StateClass:  s.StateClass(),
		Unit:        s.Unit(),
		Icon:        s.Icon(),
		State:       state,
		Available:   ok,
		Attributes:  s.Attributes(),
		Time:        t,
	}
	if lastReset := s.LastReset(); !lastReset.IsZero() {
		snapshot.LastReset = &lastReset
	}
	return snapshot
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
