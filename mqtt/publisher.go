package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/cepro/tariffsensors/sensor"
	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
)

// publishFunc sends a single message to the broker.
type publishFunc func(ctx context.Context, p *paho.Publish) error

// Publisher publishes sensor snapshots to Home Assistant over MQTT, using MQTT discovery so that the sensors are
// created automatically.
type Publisher struct {
	discoveryPrefix string
	baseTopic       string

	cliCfg         autopaho.ClientConfig
	mqttConnection *autopaho.ConnectionManager
	publish        publishFunc

	lock       sync.Mutex // mutex is used to lock access to `discovered`
	discovered map[string]bool

	logger *slog.Logger
}

func NewPublisher(brokerUrl, clientID, username, password, discoveryPrefix, baseTopic string) (*Publisher, error) {
	u, err := url.Parse(brokerUrl)
	if err != nil {
		return nil, fmt.Errorf("parse broker url: %w", err)
	}

	logger := slog.Default().With("host", u.Host)

	p := &Publisher{
		discoveryPrefix: discoveryPrefix,
		baseTopic:       baseTopic,
		discovered:      make(map[string]bool),
		logger:          logger,
	}

	p.cliCfg = autopaho.ClientConfig{
		BrokerUrls: []*url.URL{u},
		KeepAlive:  20,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, connAck *paho.Connack) {
			logger.Info("MQTT connection up")
			// Home Assistant may have restarted, so the discovery messages are re-sent after every (re)connect
			p.resetDiscovery()
			go p.publishAvailability(context.Background(), cm, payloadOnline)
		},
		OnConnectError: func(err error) {
			logger.Error("Failed to connect to MQTT broker", "error", err)
		},
		ConnectUsername: username,
		ConnectPassword: []byte(password),
		WillMessage: &paho.WillMessage{
			Retain:  true,
			QoS:     1,
			Topic:   availabilityTopic(baseTopic),
			Payload: []byte(payloadOffline),
		},
		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
			OnClientError: func(err error) {
				logger.Error("MQTT client error", "error", err)
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				if d.Properties != nil {
					logger.Warn("MQTT server requested disconnect", "reason", d.Properties.ReasonString)
				} else {
					logger.Warn("MQTT server requested disconnect", "reason_code", d.ReasonCode)
				}
			},
		},
	}

	return p, nil
}

// Open connects to the broker and waits for the connection to come up. The connection is re-established
// automatically if it drops.
func (p *Publisher) Open(ctx context.Context) error {
	connection, err := autopaho.NewConnection(ctx, p.cliCfg)
	if err != nil {
		return fmt.Errorf("create connection: %w", err)
	}

	err = connection.AwaitConnection(ctx)
	if err != nil {
		return fmt.Errorf("await connection: %w", err)
	}

	p.mqttConnection = connection
	p.publish = func(ctx context.Context, msg *paho.Publish) error {
		_, err := connection.Publish(ctx, msg)
		return err
	}

	return nil
}

// Close marks the sensors as unavailable and disconnects from the broker.
func (p *Publisher) Close(ctx context.Context) {
	if p.mqttConnection == nil {
		return
	}
	p.publishAvailability(ctx, p.mqttConnection, payloadOffline)
	p.mqttConnection.Disconnect(ctx)
}

// OnSnapshots publishes the state and attributes of each sensor, preceded by its discovery config the first time the
// sensor is seen on this connection.
func (p *Publisher) OnSnapshots(ctx context.Context, snapshots []sensor.Snapshot) {
	if p.publish == nil {
		return
	}

	for _, snapshot := range snapshots {
		err := p.publishSnapshot(ctx, snapshot)
		if err != nil {
			p.logger.Error("Failed to publish sensor", "sensor", snapshot.UniqueID, "error", err)
		}
	}
}

func (p *Publisher) publishSnapshot(ctx context.Context, snapshot sensor.Snapshot) error {

	if !p.isDiscovered(snapshot.UniqueID) {
		payload, err := discoveryPayload(p.baseTopic, snapshot)
		if err != nil {
			return fmt.Errorf("encode discovery config: %w", err)
		}
		err = p.publish(ctx, &paho.Publish{
			QoS:     1,
			Retain:  true,
			Topic:   discoveryTopic(p.discoveryPrefix, snapshot.UniqueID),
			Payload: payload,
		})
		if err != nil {
			return fmt.Errorf("publish discovery config: %w", err)
		}
		p.setDiscovered(snapshot.UniqueID)
	}

	attributes, err := attributesPayload(snapshot)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	err = p.publish(ctx, &paho.Publish{
		QoS:     1,
		Retain:  true,
		Topic:   attributesTopic(p.baseTopic, snapshot.UniqueID),
		Payload: attributes,
	})
	if err != nil {
		return fmt.Errorf("publish attributes: %w", err)
	}

	state, err := statePayload(snapshot)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	err = p.publish(ctx, &paho.Publish{
		QoS:     1,
		Retain:  true,
		Topic:   stateTopic(p.baseTopic, snapshot.UniqueID),
		Payload: state,
	})
	if err != nil {
		return fmt.Errorf("publish state: %w", err)
	}

	return nil
}

func (p *Publisher) publishAvailability(ctx context.Context, cm *autopaho.ConnectionManager, payload string) {
	_, err := cm.Publish(ctx, &paho.Publish{
		QoS:     1,
		Retain:  true,
		Topic:   availabilityTopic(p.baseTopic),
		Payload: []byte(payload),
	})
	if err != nil {
		p.logger.Error("Failed to publish availability", "error", err)
	}
}

func (p *Publisher) isDiscovered(uniqueID string) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.discovered[uniqueID]
}

func (p *Publisher) setDiscovered(uniqueID string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.discovered[uniqueID] = true
}

func (p *Publisher) resetDiscovery() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.discovered = make(map[string]bool)
}
