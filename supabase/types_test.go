package supabase

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cepro/tariffsensors/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestConvertReadingsForSupabase(t *testing.T) {

	meta := telemetry.ReadingMeta{
		ID:       uuid.MustParse("e2122808-1e75-4dd8-a67d-5a66ad54d433"),
		DeviceID: uuid.MustParse("64d84428-b989-4443-9a5e-aed02c224ee7"),
		Time:     time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	imported := 1234.5

	type subTest struct {
		name          string
		readings      interface{}
		expectedTable string
		expectedJson  string
	}

	subTests := []subTest{
		{
			name:          "Meter readings",
			readings:      []telemetry.MeterReading{{ReadingMeta: meta, EnergyImportedActive: &imported}},
			expectedTable: SUPABASE_METER_READING_TABLE_NAME,
			expectedJson:  `[{"id":"e2122808-1e75-4dd8-a67d-5a66ad54d433","device_id":"64d84428-b989-4443-9a5e-aed02c224ee7","time":"2023-06-01T12:00:00Z","energy_imported_active":1234.5,"energy_exported_active":null}]`,
		},
		{
			name:          "Sensor readings",
			readings:      []telemetry.SensorReading{{ReadingMeta: meta, SensorID: "abc", State: 0.25, Unit: "GBP/kWh"}},
			expectedTable: SUPABASE_SENSOR_READING_TABLE_NAME,
			expectedJson:  `[{"id":"e2122808-1e75-4dd8-a67d-5a66ad54d433","device_id":"64d84428-b989-4443-9a5e-aed02c224ee7","time":"2023-06-01T12:00:00Z","sensor_id":"abc","state":0.25,"unit":"GBP/kWh"}]`,
		},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			converted, table := convertReadingsForSupabase(subTest.readings)
			assert.Equal(t, subTest.expectedTable, table)

			encoded, err := json.Marshal(converted)
			assert.NoError(t, err)
			assert.JSONEq(t, subTest.expectedJson, string(encoded))
		})
	}

	assert.Panics(t, func() {
		convertReadingsForSupabase([]int{1})
	})
}
