package sink

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig selects a broker and topic for output
type MQTTConfig struct {
	Broker   string        `yaml:"broker" json:"broker"` // e.g. tcp://localhost:1883
	ClientID string        `yaml:"client_id" json:"client_id"`
	Topic    string        `yaml:"topic" json:"topic"`
	QoS      byte          `yaml:"qos" json:"qos"`
	Retained bool          `yaml:"retained" json:"retained"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// MQTT publishes each epoch as one message
type MQTT struct {
	client mqtt.Client
	cfg    MQTTConfig
}

// NewMQTT connects to the broker
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.Broker == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt: %w", ErrNoDestination)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.Timeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, ErrPublishTimeout)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	return newMQTT(client, cfg), nil
}

func newMQTT(client mqtt.Client, cfg MQTTConfig) *MQTT {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &MQTT{client: client, cfg: cfg}
}

func (m *MQTT) Send(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	// the client may queue the payload after Publish returns
	payload := append([]byte(nil), p...)
	token := m.client.Publish(m.cfg.Topic, m.cfg.QoS, m.cfg.Retained, payload)
	if !token.WaitTimeout(m.cfg.Timeout) {
		return fmt.Errorf("topic %s: %w", m.cfg.Topic, ErrPublishTimeout)
	}
	return token.Error()
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
