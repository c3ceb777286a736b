package dataplatform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cepro/tariffsensors/repository"
	"github.com/cepro/tariffsensors/telemetry"
)

// uploadChunkLimit defines how many readings can be uploaded in one supabase HTTP request
const uploadChunkLimit = 100

// Uploader sends a slice of telemetry.MeterReading or telemetry.SensorReading to the data platform.
type Uploader interface {
	UploadReadings(readings interface{}) error
}

// DataPlatform handles the streaming of readings to Supabase.
// Put new meter and sensor readings onto the appropriate channels, they will be bufferred on disk in a SQLite database
// before being uploaded.
type DataPlatform struct {
	MeterReadings  chan telemetry.MeterReading
	SensorReadings chan telemetry.SensorReading

	repository *repository.Repository
	uploader   Uploader
	logger     *slog.Logger
}

func New(uploader Uploader, repository *repository.Repository) *DataPlatform {
	return &DataPlatform{
		MeterReadings:  make(chan telemetry.MeterReading, 25), // a small buffer to allow SQLite to catch up in case the disk is slow
		SensorReadings: make(chan telemetry.SensorReading, 100),
		repository:     repository,
		uploader:       uploader,
		logger:         slog.Default().With("component", "data_platform"),
	}
}

// Run loops forever storing readings as they arrive, and attempting an upload every `uploadPeriod`.
func (d *DataPlatform) Run(ctx context.Context, uploadPeriod time.Duration) {

	uploadTicker := time.NewTicker(uploadPeriod)
	defer uploadTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case reading := <-d.MeterReadings:
			err := d.repository.AddMeterReading(reading)
			if err != nil {
				d.logger.Error("Failed to persist meter reading", "error", err)
			}
		case reading := <-d.SensorReadings:
			err := d.repository.AddSensorReading(reading)
			if err != nil {
				d.logger.Error("Failed to persist sensor reading", "error", err)
			}
		case <-uploadTicker.C:
			d.attemptUpload()
		}
	}
}

// attemptUpload uploads new readings first, and then any old readings that have already failed an upload at least once.
func (d *DataPlatform) attemptUpload() {
	for _, fresh := range []bool{true, false} {
		err := d.uploadMeterReadings(fresh)
		if err != nil {
			d.logger.Error("Failed to upload meter readings", "fresh", fresh, "error", err)
		}
		err = d.uploadSensorReadings(fresh)
		if err != nil {
			d.logger.Error("Failed to upload sensor readings", "fresh", fresh, "error", err)
		}
	}
}

// uploadMeterReadings attempts to upload a chunk of meter readings. If successful the readings are deleted from the
// database, otherwise their 'upload attempt count' is incremented and they are left in the database for another time.
func (d *DataPlatform) uploadMeterReadings(fresh bool) error {
	stored, err := d.repository.GetMeterReadings(uploadChunkLimit, fresh)
	if err != nil {
		return fmt.Errorf("query readings: %w", err)
	}
	if len(stored) == 0 {
		return nil
	}

	readings := make([]telemetry.MeterReading, 0, len(stored))
	for _, reading := range stored {
		readings = append(readings, reading.MeterReading)
	}

	uploadErr := d.uploader.UploadReadings(readings)
	if uploadErr != nil {
		uploadErr = fmt.Errorf("upload failed: %w", uploadErr)
		errInc := d.repository.IncrementMeterReadingsUploadAttemptCount(stored)
		if errInc != nil {
			return fmt.Errorf("%w: increment upload attempt count: %w", uploadErr, errInc)
		}
		return uploadErr
	}

	err = d.repository.DeleteMeterReadings(stored)
	if err != nil {
		return fmt.Errorf("delete readings: %w", err)
	}

	d.logger.Info("Uploaded meter readings", "count", len(stored))
	return nil
}

// uploadSensorReadings is the sensor reading equivalent of uploadMeterReadings.
func (d *DataPlatform) uploadSensorReadings(fresh bool) error {
	stored, err := d.repository.GetSensorReadings(uploadChunkLimit, fresh)
	if err != nil {
		return fmt.Errorf("query readings: %w", err)
	}
	if len(stored) == 0 {
		return nil
	}

	readings := make([]telemetry.SensorReading, 0, len(stored))
	for _, reading := range stored {
		readings = append(readings, reading.SensorReading)
	}

	uploadErr := d.uploader.UploadReadings(readings)
	if uploadErr != nil {
		uploadErr = fmt.Errorf("upload failed: %w", uploadErr)
		errInc := d.repository.IncrementSensorReadingsUploadAttemptCount(stored)
		if errInc != nil {
			return fmt.Errorf("%w: increment upload attempt count: %w", uploadErr, errInc)
		}
		return uploadErr
	}

	err = d.repository.DeleteSensorReadings(stored)
	if err != nil {
		return fmt.Errorf("delete readings: %w", err)
	}

	d.logger.Info("Uploaded sensor readings", "count", len(stored))
	return nil
}
