package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cepro/tariffsensors/sensor"
	"github.com/stretchr/testify/assert"
)

type staticSnapshots []sensor.Snapshot

func (s staticSnapshots) Snapshots() []sensor.Snapshot {
	return s
}

func (s staticSnapshots) Snapshot(uniqueID string) (sensor.Snapshot, bool) {
	for _, snapshot := range s {
		if snapshot.UniqueID == uniqueID {
			return snapshot, true
		}
	}
	return sensor.Snapshot{}, false
}

func testSnapshots() staticSnapshots {
	return staticSnapshots{
		{UniqueID: "current_rate", Unit: sensor.UnitPoundsPerKwh, State: 0.1, Available: true, Attributes: map[string]interface{}{"tariff": "E-1R-AGILE-18-02-21-C"}},
		{UniqueID: "next_rate", Unit: sensor.UnitPoundsPerKwh, Available: false},
	}
}

func TestRouter(t *testing.T) {
	snapshots := testSnapshots()
	metrics := NewMetrics()
	metrics.OnSnapshots(context.Background(), snapshots)

	server := httptest.NewServer(NewRouter(snapshots, metrics))
	defer server.Close()

	type subTest struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedBody   string // substring
	}

	subTests := []subTest{
		{"Health", "GET", "/health", http.StatusOK, `"status":"ok"`},
		{"List sensors", "GET", "/sensors", http.StatusOK, `"unique_id":"next_rate"`},
		{"Get sensor", "GET", "/sensors/current_rate", http.StatusOK, `"state":0.1`},
		{"Unknown sensor", "GET", "/sensors/nope", http.StatusNotFound, "sensor not found"},
		{"Wrong method", "POST", "/sensors", http.StatusMethodNotAllowed, ""},
		{"Metrics", "GET", "/metrics", http.StatusOK, `tariffsensors_sensor_state{unique_id="current_rate",unit="GBP/kWh"} 0.1`},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			req, err := http.NewRequest(subTest.method, server.URL+subTest.path, nil)
			assert.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			assert.NoError(t, err)
			assert.Equal(t, subTest.expectedStatus, resp.StatusCode)
			assert.True(t, strings.Contains(string(body), subTest.expectedBody), string(body))
		})
	}
}

func TestListSensorsDecodes(t *testing.T) {
	server := httptest.NewServer(NewRouter(testSnapshots(), NewMetrics()))
	defer server.Close()

	resp, err := http.Get(server.URL + "/sensors")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decoded []sensor.Snapshot
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Len(t, decoded, 2)
	assert.Equal(t, "E-1R-AGILE-18-02-21-C", decoded[0].Attributes["tariff"])
}

func TestMetricsAvailability(t *testing.T) {
	metrics := NewMetrics()
	metrics.OnSnapshots(context.Background(), testSnapshots())

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `tariffsensors_sensor_available{unique_id="current_rate"} 1`)
	assert.Contains(t, body, `tariffsensors_sensor_available{unique_id="next_rate"} 0`)
	assert.NotContains(t, body, `tariffsensors_sensor_state{unique_id="next_rate"`)
	assert.Contains(t, body, "tariffsensors_updates_total 1")
}
