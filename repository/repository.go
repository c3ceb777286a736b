package repository

import (
	"errors"
	"fmt"

	"github.com/cepro/tariffsensors/telemetry"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repository stores readings to the local file system (sqlite) before they are uploaded to Supabase, and keeps the
// last state of each sensor so that it can be restored after a restart.
type Repository struct {
	db *gorm.DB
}

func New(path string) (*Repository, error) {

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Migrate the schema
	err = db.AutoMigrate(&StoredMeterReading{}, &StoredSensorReading{}, &SensorState{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repository{
		db: db,
	}, nil
}

func (r *Repository) AddMeterReading(reading telemetry.MeterReading) error {
	result := r.db.Create(newStoredMeterReading(reading))
	return result.Error
}

func (r *Repository) AddSensorReading(reading telemetry.SensorReading) error {
	result := r.db.Create(newStoredSensorReading(reading))
	return result.Error
}

// GetMeterReadings returns up to `limit` meter readings. When `fresh` is true only readings that have never been
// uploaded are returned, otherwise only readings that have failed at least one upload are returned.
func (r *Repository) GetMeterReadings(limit int, fresh bool) ([]StoredMeterReading, error) {
	var readings []StoredMeterReading
	result := pendingQuery(r.db, limit, fresh).Find(&readings)
	if result.Error != nil {
		return nil, result.Error
	}
	return readings, nil
}

// GetSensorReadings is the sensor reading equivalent of GetMeterReadings.
func (r *Repository) GetSensorReadings(limit int, fresh bool) ([]StoredSensorReading, error) {
	var readings []StoredSensorReading
	result := pendingQuery(r.db, limit, fresh).Find(&readings)
	if result.Error != nil {
		return nil, result.Error
	}
	return readings, nil
}

func (r *Repository) DeleteMeterReadings(readings []StoredMeterReading) error {
	return r.db.Where("id IN ?", meterReadingIDs(readings)).Delete(&StoredMeterReading{}).Error
}

func (r *Repository) DeleteSensorReadings(readings []StoredSensorReading) error {
	return r.db.Where("id IN ?", sensorReadingIDs(readings)).Delete(&StoredSensorReading{}).Error
}

func (r *Repository) IncrementMeterReadingsUploadAttemptCount(readings []StoredMeterReading) error {
	return incrementUploadAttemptCount(r.db.Model(&StoredMeterReading{}), meterReadingIDs(readings))
}

func (r *Repository) IncrementSensorReadingsUploadAttemptCount(readings []StoredSensorReading) error {
	return incrementUploadAttemptCount(r.db.Model(&StoredSensorReading{}), sensorReadingIDs(readings))
}

// SaveSensorState creates or replaces the stored state of a sensor.
func (r *Repository) SaveSensorState(state SensorState) error {
	return r.db.Save(&state).Error
}

// GetSensorState returns the stored state of the given sensor, or false if there is none.
func (r *Repository) GetSensorState(sensorID string) (SensorState, bool, error) {
	var state SensorState
	result := r.db.Where("sensor_id = ?", sensorID).First(&state)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return SensorState{}, false, nil
	}
	if result.Error != nil {
		return SensorState{}, false, result.Error
	}
	return state, true, nil
}

func pendingQuery(db *gorm.DB, limit int, fresh bool) *gorm.DB {
	query := db.Limit(limit).Order("upload_attempt_count asc, time desc")
	if fresh {
		return query.Where("upload_attempt_count = ?", 0)
	}
	// TODO: give up on readings after a certain number of attempts
	return query.Where("upload_attempt_count > ?", 0)
}

func incrementUploadAttemptCount(model *gorm.DB, ids []uuid.UUID) error {
	return model.Where("id IN ?", ids).UpdateColumn("upload_attempt_count", gorm.Expr("upload_attempt_count + ?", 1)).Error
}

func meterReadingIDs(readings []StoredMeterReading) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(readings))
	for _, reading := range readings {
		ids = append(ids, reading.ID)
	}
	return ids
}

func sensorReadingIDs(readings []StoredSensorReading) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(readings))
	for _, reading := range readings {
		ids = append(ids, reading.ID)
	}
	return ids
}
