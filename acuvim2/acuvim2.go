package acuvim2

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cepro/tariffsensors/modbusaccess"
	"github.com/cepro/tariffsensors/telemetry"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

const (
	slaveID        = 0x01
	requestTimeout = 5 * time.Second
)

// Acuvim2Meter handles Modbus communications with an Acuvim 2 meter that is installed locally to measure consumption
// in real time. Energy readings are taken regularly and sent onto the `readings` channel.
type Acuvim2Meter struct {
	readings chan<- telemetry.MeterReading
	host     string
	id       uuid.UUID
	client   modbusaccess.Reader
	logger   *slog.Logger
}

func New(readings chan<- telemetry.MeterReading, id uuid.UUID, host string) *Acuvim2Meter {
	return newWithReader(readings, id, host, modbusaccess.NewClient(host, slaveID, requestTimeout))
}

func newWithReader(readings chan<- telemetry.MeterReading, id uuid.UUID, host string, client modbusaccess.Reader) *Acuvim2Meter {
	return &Acuvim2Meter{
		readings: readings,
		id:       id,
		host:     host,
		client:   client,
		logger:   slog.Default().With("meter_id", id, "host", host),
	}
}

// Run loops forever polling energy registers from the meter every `period`. Exits when the context is cancelled.
func (a *Acuvim2Meter) Run(ctx context.Context, period time.Duration) error {

	readingTicker := time.NewTicker(period)
	defer readingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-readingTicker.C:

			meterReading, err := a.poll(t)
			if err != nil {
				a.logger.Error("Failed to poll meter", "error", err)
				continue // try again next time
			}

			select {
			case a.readings <- meterReading:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// poll takes a single reading from the meter.
func (a *Acuvim2Meter) poll(t time.Time) (telemetry.MeterReading, error) {
	metrics, err := modbusaccess.PollBlocks(a.client, a, blocks)
	if err != nil {
		return telemetry.MeterReading{}, err
	}

	meterReading, err := a.metricsToMeterReading(metrics, t)
	if err != nil {
		return telemetry.MeterReading{}, fmt.Errorf("convert metrics: %w", err)
	}

	return meterReading, nil
}

// metricsToMeterReading converts the given map of metrics relating to a meter into a concrete `telemetry.MeterReading` instance.
func (a *Acuvim2Meter) metricsToMeterReading(metrics map[string]interface{}, t time.Time) (telemetry.MeterReading, error) {

	meterReading := telemetry.MeterReading{
		ReadingMeta: telemetry.ReadingMeta{
			ID:       uuid.New(),
			DeviceID: a.id,
			Time:     t,
		},
	}

	err := mapstructure.Decode(metrics, &meterReading)
	if err != nil {
		return telemetry.MeterReading{}, fmt.Errorf("decode metric map: %w", err)
	}

	return meterReading, nil
}
