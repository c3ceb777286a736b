package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// ReadingMeta is common to all readings
type ReadingMeta struct {
	ID       uuid.UUID
	DeviceID uuid.UUID
	Time     time.Time
}

// MeterReading holds the energy registers pulled from a local meter (kWh).
type MeterReading struct {
	ReadingMeta
	EnergyImportedActive *float64
	EnergyExportedActive *float64
}

// SensorReading is a snapshot of a sensor's state, taken so that the history of the sensors can be uploaded to the
// data platform.
type SensorReading struct {
	ReadingMeta
	SensorID string
	State    float64
	Unit     string
}

// sensorNamespace is used to derive stable device IDs from sensor unique IDs
var sensorNamespace = uuid.MustParse("0b5b1f64-62c8-4d6c-9d43-6f2a1c3e9a51")

// SensorDeviceID returns a stable UUID for the sensor with the given unique ID.
func SensorDeviceID(sensorID string) uuid.UUID {
	return uuid.NewSHA1(sensorNamespace, []byte(sensorID))
}

// NewSensorReading returns a reading of the given sensor state, taken at `t`.
func NewSensorReading(sensorID string, state float64, unit string, t time.Time) SensorReading {
	return SensorReading{
		ReadingMeta: ReadingMeta{
			ID:       uuid.New(),
			DeviceID: SensorDeviceID(sensorID),
			Time:     t,
		},
		SensorID: sensorID,
		State:    state,
		Unit:     unit,
	}
}
