package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cepro/tariffsensors/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestRepository(t *testing.T) *Repository {
	repo, err := New(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestSensorReadingUploadLifecycle(t *testing.T) {
	repo := newTestRepository(t)

	start := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		reading := telemetry.NewSensorReading("sensor_a", float64(i), "kWh", start.Add(time.Duration(i)*time.Minute))
		assert.NoError(t, repo.AddSensorReading(reading))
	}

	fresh, err := repo.GetSensorReadings(10, true)
	assert.NoError(t, err)
	assert.Len(t, fresh, 3)
	// most recent first
	assert.Equal(t, 2.0, fresh[0].State)
	assert.Equal(t, "sensor_a", fresh[0].SensorID)

	old, err := repo.GetSensorReadings(10, false)
	assert.NoError(t, err)
	assert.Len(t, old, 0)

	// a failed upload moves the readings from 'fresh' to 'old'
	assert.NoError(t, repo.IncrementSensorReadingsUploadAttemptCount(fresh[:2]))
	fresh, err = repo.GetSensorReadings(10, true)
	assert.NoError(t, err)
	assert.Len(t, fresh, 1)
	old, err = repo.GetSensorReadings(10, false)
	assert.NoError(t, err)
	assert.Len(t, old, 2)
	assert.Equal(t, uint(1), old[0].UploadAttemptCount)

	// a successful upload deletes them
	assert.NoError(t, repo.DeleteSensorReadings(old))
	old, err = repo.GetSensorReadings(10, false)
	assert.NoError(t, err)
	assert.Len(t, old, 0)
}

func TestMeterReadingLimit(t *testing.T) {
	repo := newTestRepository(t)

	imported := 100.0
	for i := 0; i < 5; i++ {
		reading := telemetry.MeterReading{
			ReadingMeta: telemetry.ReadingMeta{
				ID:       uuid.New(),
				DeviceID: uuid.New(),
				Time:     time.Date(2023, 6, 1, 12, i, 0, 0, time.UTC),
			},
			EnergyImportedActive: &imported,
		}
		assert.NoError(t, repo.AddMeterReading(reading))
	}

	readings, err := repo.GetMeterReadings(2, true)
	assert.NoError(t, err)
	assert.Len(t, readings, 2)
	if assert.NotNil(t, readings[0].EnergyImportedActive) {
		assert.Equal(t, 100.0, *readings[0].EnergyImportedActive)
	}
	assert.Nil(t, readings[0].EnergyExportedActive)

	assert.NoError(t, repo.IncrementMeterReadingsUploadAttemptCount(readings))
	assert.NoError(t, repo.DeleteMeterReadings(readings))

	readings, err = repo.GetMeterReadings(10, true)
	assert.NoError(t, err)
	assert.Len(t, readings, 3)
}

func TestSensorState(t *testing.T) {
	repo := newTestRepository(t)

	_, ok, err := repo.GetSensorState("missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	lastReset := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	err = repo.SaveSensorState(SensorState{
		SensorID:   "sensor_a",
		State:      1.5,
		Attributes: map[string]interface{}{"tariff": "E-1R-AGILE-18-02-21-C"},
		LastReset:  lastReset,
	})
	assert.NoError(t, err)

	// saving again replaces the previous state
	err = repo.SaveSensorState(SensorState{SensorID: "sensor_a", State: 2.5, LastReset: lastReset})
	assert.NoError(t, err)

	state, ok, err := repo.GetSensorState("sensor_a")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2.5, state.State)
	assert.True(t, state.LastReset.Equal(lastReset))
}
