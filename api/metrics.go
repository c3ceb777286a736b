package api

import (
	"context"
	"net/http"

	"github.com/cepro/tariffsensors/sensor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the sensor states as Prometheus gauges.
type Metrics struct {
	registry        *prometheus.Registry
	sensorState     *prometheus.GaugeVec
	sensorAvailable *prometheus.GaugeVec
	updatesTotal    prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sensorState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tariffsensors_sensor_state",
			Help: "Latest state of each sensor, in the sensor's unit.",
		}, []string{"unique_id", "unit"}),
		sensorAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tariffsensors_sensor_available",
			Help: "Whether each sensor currently has a state (1) or not (0).",
		}, []string{"unique_id"}),
		updatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tariffsensors_updates_total",
			Help: "Total number of sensor update cycles.",
		}),
	}

	m.registry.MustRegister(m.sensorState, m.sensorAvailable, m.updatesTotal)

	return m
}

// OnSnapshots updates the gauges from the latest sensor snapshots.
func (m *Metrics) OnSnapshots(ctx context.Context, snapshots []sensor.Snapshot) {
	m.updatesTotal.Inc()
	for _, snapshot := range snapshots {
		if snapshot.Available {
			m.sensorAvailable.WithLabelValues(snapshot.UniqueID).Set(1)
			m.sensorState.WithLabelValues(snapshot.UniqueID, snapshot.Unit).Set(snapshot.State)
		} else {
			m.sensorAvailable.WithLabelValues(snapshot.UniqueID).Set(0)
			m.sensorState.DeleteLabelValues(snapshot.UniqueID, snapshot.Unit)
		}
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
