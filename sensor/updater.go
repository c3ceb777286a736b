package sensor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cepro/tariffsensors/telemetry"
	timeutils "github.com/cepro/tariffsensors/time_utils"
)

// Listener is notified with fresh snapshots of every sensor after each update.
type Listener interface {
	OnSnapshots(ctx context.Context, snapshots []Snapshot)
}

// Updater periodically evaluates all the sensors, persists their state and notifies the listeners.
type Updater struct {
	sensors   []Sensor
	store     StateStore
	listeners []Listener
	clock     Clock

	lock   sync.RWMutex // mutex is used to lock access to `latest`
	latest []Snapshot

	logger *slog.Logger
}

func NewUpdater(sensors []Sensor, store StateStore, clock Clock, listeners ...Listener) *Updater {
	return &Updater{
		sensors:   sensors,
		store:     store,
		listeners: listeners,
		clock:     clock,
		logger:    slog.Default().With("component", "sensor_updater"),
	}
}

// Run updates the sensors immediately, then every `period` and at the start of every settlement period, until the
// context is cancelled. Rates change on the half hour so the extra update keeps the rate sensors in step.
func (u *Updater) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	boundary := time.NewTimer(timeutils.DurationLeftOfSP(u.clock()))
	defer boundary.Stop()

	u.Update(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			u.Update(ctx)
		case <-boundary.C:
			u.Update(ctx)
			boundary.Reset(timeutils.DurationLeftOfSP(u.clock()))
		}
	}
}

// Update takes a snapshot of every sensor, stores the available states and passes the snapshots to the listeners.
func (u *Updater) Update(ctx context.Context) {
	now := u.clock()

	snapshots := make([]Snapshot, 0, len(u.sensors))
	available := 0
	for _, s := range u.sensors {
		snapshot := Take(s, now)
		snapshots = append(snapshots, snapshot)

		if !snapshot.Available {
			continue
		}
		available++

		if u.store != nil {
			err := u.store.SaveSensorState(stateOf(snapshot))
			if err != nil {
				u.logger.Error("Failed to save sensor state", "sensor", snapshot.UniqueID, "error", err)
			}
		}
	}

	u.lock.Lock()
	u.latest = snapshots
	u.lock.Unlock()

	for _, listener := range u.listeners {
		listener.OnSnapshots(ctx, snapshots)
	}

	u.logger.Debug("Updated sensors", "available", available, "total", len(snapshots))
}

// Snapshots returns the snapshots taken by the last update.
func (u *Updater) Snapshots() []Snapshot {
	u.lock.RLock()
	defer u.lock.RUnlock()

	snapshots := make([]Snapshot, len(u.latest))
	copy(snapshots, u.latest)
	return snapshots
}

// Snapshot returns the last snapshot of the sensor with the given unique ID.
func (u *Updater) Snapshot(uniqueID string) (Snapshot, bool) {
	u.lock.RLock()
	defer u.lock.RUnlock()

	for _, snapshot := range u.latest {
		if snapshot.UniqueID == uniqueID {
			return snapshot, true
		}
	}
	return Snapshot{}, false
}

// ReadingForwarder turns available snapshots into sensor readings for the data platform.
type ReadingForwarder struct {
	Readings chan<- telemetry.SensorReading
	logger   *slog.Logger
}

func NewReadingForwarder(readings chan<- telemetry.SensorReading) *ReadingForwarder {
	return &ReadingForwarder{
		Readings: readings,
		logger:   slog.Default().With("component", "reading_forwarder"),
	}
}

func (f *ReadingForwarder) OnSnapshots(ctx context.Context, snapshots []Snapshot) {
	for _, snapshot := range snapshots {
		if !snapshot.Available {
			continue
		}
		select {
		case f.Readings <- telemetry.NewSensorReading(snapshot.UniqueID, snapshot.State, snapshot.Unit, snapshot.Time):
		case <-ctx.Done():
			return
		default:
			f.logger.Warn("Dropped sensor reading as the buffer is full", "sensor", snapshot.UniqueID)
		}
	}
}
