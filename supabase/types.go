package supabase

import (
	"fmt"
	"time"

	"github.com/cepro/tariffsensors/telemetry"
	"github.com/google/uuid"
)

const (
	SUPABASE_METER_READING_TABLE_NAME  = "meter_readings"
	SUPABASE_SENSOR_READING_TABLE_NAME = "sensor_readings"
)

type SupabaseReadingMeta struct {
	ID       uuid.UUID `json:"id"`
	DeviceID uuid.UUID `json:"device_id"`
	Time     time.Time `json:"time"`
}

// supabaseMeterReading holds the json encoding schema for a local meter reading in supabase.
type supabaseMeterReading struct {
	SupabaseReadingMeta
	EnergyImportedActive *float64 `json:"energy_imported_active"`
	EnergyExportedActive *float64 `json:"energy_exported_active"`
}

// supabaseSensorReading holds the json encoding schema for a sensor reading in supabase.
type supabaseSensorReading struct {
	SupabaseReadingMeta
	SensorID string  `json:"sensor_id"`
	State    float64 `json:"state"`
	Unit     string  `json:"unit"`
}

// convertReadingsForSupabase returns the equivilent "supbase type" for the given readings (which include supabase json tags) and the
// associated supabase table name.
func convertReadingsForSupabase(readings interface{}) (interface{}, string) {
	switch readingsTyped := readings.(type) {

	case []telemetry.MeterReading:
		supabaseReadings := make([]supabaseMeterReading, 0, len(readingsTyped))
		for _, reading := range readingsTyped {
			supabaseReadings = append(supabaseReadings, supabaseMeterReading{
				SupabaseReadingMeta:  SupabaseReadingMeta(reading.ReadingMeta),
				EnergyImportedActive: reading.EnergyImportedActive,
				EnergyExportedActive: reading.EnergyExportedActive,
			})
		}
		return supabaseReadings, SUPABASE_METER_READING_TABLE_NAME

	case []telemetry.SensorReading:
		supabaseReadings := make([]supabaseSensorReading, 0, len(readingsTyped))
		for _, reading := range readingsTyped {
			supabaseReadings = append(supabaseReadings, supabaseSensorReading{
				SupabaseReadingMeta: SupabaseReadingMeta(reading.ReadingMeta),
				SensorID:            reading.SensorID,
				State:               reading.State,
				Unit:                reading.Unit,
			})
		}
		return supabaseReadings, SUPABASE_SENSOR_READING_TABLE_NAME

	default:
		panic(fmt.Sprintf("Unknown readings type: '%T'", readings))
	}
}
