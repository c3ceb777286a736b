package repository

import (
	"time"

	"github.com/cepro/tariffsensors/telemetry"
)

// StoredMeterReading represents a meter reading that is persisted to the SQLite database, and includes a count of upload attempts.
type StoredMeterReading struct {
	telemetry.MeterReading
	UploadAttemptCount uint
}

// StoredSensorReading represents a sensor reading that is persisted to the SQLite database, and includes a count of upload attempts.
type StoredSensorReading struct {
	telemetry.SensorReading
	UploadAttemptCount uint
}

// SensorState is the last known state of a sensor, used to restore the sensor after a restart.
type SensorState struct {
	SensorID   string `gorm:"primaryKey"`
	State      float64
	Attributes map[string]interface{} `gorm:"serializer:json"`
	LastReset  time.Time
	UpdatedAt  time.Time
}

func newStoredMeterReading(reading telemetry.MeterReading) StoredMeterReading {
	return StoredMeterReading{
		MeterReading:       reading,
		UploadAttemptCount: 0,
	}
}

func newStoredSensorReading(reading telemetry.SensorReading) StoredSensorReading {
	return StoredSensorReading{
		SensorReading:      reading,
		UploadAttemptCount: 0,
	}
}
