package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cepro/tariffsensors/sensor"
)

// device groups all the sensors under one Home Assistant device
type device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// discoveryConfig is the Home Assistant MQTT discovery payload for a sensor.
type discoveryConfig struct {
	Name                string `json:"name"`
	UniqueID            string `json:"unique_id"`
	ObjectID            string `json:"object_id"`
	StateTopic          string `json:"state_topic"`
	ValueTemplate       string `json:"value_template"`
	LastResetTemplate   string `json:"last_reset_value_template,omitempty"`
	JsonAttributesTopic string `json:"json_attributes_topic"`
	AvailabilityTopic   string `json:"availability_topic"`
	DeviceClass         string `json:"device_class,omitempty"`
	StateClass          string `json:"state_class,omitempty"`
	UnitOfMeasurement   string `json:"unit_of_measurement,omitempty"`
	Icon                string `json:"icon,omitempty"`
	Device              device `json:"device"`
}

// stateMessage is published to the state topic. Home Assistant only reads `last_reset` from the state topic, so it
// travels alongside the state rather than just in the attributes.
type stateMessage struct {
	State     *float64 `json:"state"`
	LastReset string   `json:"last_reset,omitempty"`
}

const (
	payloadOnline  = "online"
	payloadOffline = "offline"

	valueTemplate     = "{{ value_json.state }}"
	lastResetTemplate = "{{ value_json.last_reset }}"
)

func discoveryTopic(discoveryPrefix, uniqueID string) string {
	return fmt.Sprintf("%s/sensor/%s/config", discoveryPrefix, uniqueID)
}

func stateTopic(baseTopic, uniqueID string) string {
	return fmt.Sprintf("%s/%s/state", baseTopic, uniqueID)
}

func attributesTopic(baseTopic, uniqueID string) string {
	return fmt.Sprintf("%s/%s/attributes", baseTopic, uniqueID)
}

func availabilityTopic(baseTopic string) string {
	return fmt.Sprintf("%s/status", baseTopic)
}

// discoveryPayload returns the retained config message that makes Home Assistant create the sensor.
func discoveryPayload(baseTopic string, snapshot sensor.Snapshot) ([]byte, error) {
	config := discoveryConfig{
		Name:                snapshot.Name,
		UniqueID:            snapshot.UniqueID,
		ObjectID:            snapshot.UniqueID,
		StateTopic:          stateTopic(baseTopic, snapshot.UniqueID),
		ValueTemplate:       valueTemplate,
		JsonAttributesTopic: attributesTopic(baseTopic, snapshot.UniqueID),
		AvailabilityTopic:   availabilityTopic(baseTopic),
		DeviceClass:         snapshot.DeviceClass,
		StateClass:          snapshot.StateClass,
		UnitOfMeasurement:   snapshot.Unit,
		Icon:                snapshot.Icon,
		Device: device{
			Identifiers:  []string{baseTopic},
			Name:         "Tariff Sensors",
			Manufacturer: "Octopus Energy",
			Model:        "tariffsensors",
		},
	}
	if snapshot.StateClass == sensor.StateClassTotal {
		config.LastResetTemplate = lastResetTemplate
	}
	return json.Marshal(config)
}

// statePayload returns the sensor state, and last reset for "total" sensors. A null state is rendered as "None" by
// the value template, which Home Assistant treats as unknown.
func statePayload(snapshot sensor.Snapshot) ([]byte, error) {
	msg := stateMessage{}
	if snapshot.Available {
		state := snapshot.State
		msg.State = &state
	}
	if snapshot.LastReset != nil {
		msg.LastReset = snapshot.LastReset.Format(time.RFC3339)
	}
	return json.Marshal(msg)
}

// attributesPayload returns the sensor attributes, including the last reset time for "total" sensors.
func attributesPayload(snapshot sensor.Snapshot) ([]byte, error) {
	attributes := make(map[string]interface{}, len(snapshot.Attributes)+1)
	for k, v := range snapshot.Attributes {
		attributes[k] = v
	}
	if snapshot.LastReset != nil {
		attributes["last_reset"] = snapshot.LastReset.Format(time.RFC3339)
	}
	return json.Marshal(attributes)
}
