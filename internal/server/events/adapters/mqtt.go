package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/agentstation/stockguard/internal/server/events"
	"github.com/agentstation/stockguard/pkg/errors"
)

// mqttTimeout bounds connect and publish acknowledgements.
const mqttTimeout = 5 * time.Second

// mqttPublishFunc publishes one payload.
type mqttPublishFunc func(topic string, retained bool, payload []byte) error

// MQTTSubscriber forwards events to MQTT topics such as
// "stockguard/product/7". Status events are retained so new subscribers see
// the latest liveness immediately.
type MQTTSubscriber struct {
	publish    mqttPublishFunc
	disconnect func()
	prefix     string
}

// NewMQTTSubscriber connects to broker and publishes under prefix.
func NewMQTTSubscriber(broker, prefix, clientID string) (*MQTTSubscriber, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttTimeout)

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(mqttTimeout) {
		return nil, errors.WrapResource("connect", "mqtt", broker, fmt.Errorf("timed out after %s", mqttTimeout))
	}
	if err := tok.Error(); err != nil {
		return nil, errors.WrapResource("connect", "mqtt", broker, err)
	}

	publish := func(topic string, retained bool, payload []byte) error {
		tok := client.Publish(topic, 1, retained, payload)
		if !tok.WaitTimeout(mqttTimeout) {
			return fmt.Errorf("mqtt publish to %s timed out", topic)
		}
		return tok.Error()
	}
	return newMQTTSubscriber(publish, func() { client.Disconnect(250) }, prefix), nil
}

func newMQTTSubscriber(publish mqttPublishFunc, disconnect func(), prefix string) *MQTTSubscriber {
	if prefix == "" {
		prefix = "stockguard"
	}
	return &MQTTSubscriber{publish: publish, disconnect: disconnect, prefix: prefix}
}

// Topic returns the topic an event is published on.
func (m *MQTTSubscriber) Topic(event events.Event) string {
	return m.prefix + "/" + strings.ReplaceAll(event.Key(), ".", "/")
}

// Name implements events.Subscriber.
func (m *MQTTSubscriber) Name() string { return "mqtt" }

// Send implements events.Subscriber.
func (m *MQTTSubscriber) Send(_ context.Context, event events.Event) error {
	data, err := event.Encode()
	if err != nil {
		return err
	}
	return m.publish(m.Topic(event), event.Type == events.StatusTick, data)
}

// Close disconnects from the broker.
func (m *MQTTSubscriber) Close() error {
	if m.disconnect != nil {
		m.disconnect()
	}
	return nil
}
