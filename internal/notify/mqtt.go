// Package notify mirrors trip tracker updates to an MQTT broker.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/triptap-rides/internal/tracker"
)

const (
	DefaultTopicPrefix = "triptap"
	publishTimeout     = 5 * time.Second
	statusQoS          = 1
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Publisher is the part of mqtt.Client used here.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Connect opens a client session with broker (e.g. "tcp://localhost:1883").
func Connect(broker, clientID string) (mqtt.Client, error) {
	if broker == "" {
		return nil, errors.New("mqtt broker not configured")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return client, nil
}

// MQTTPublisher publishes every tracker view as a retained message on
// <prefix>/trips/{requestId}/status.
type MQTTPublisher struct {
	client  Publisher
	prefix  string
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewMQTTPublisher(client Publisher, prefix string, log logrus.FieldLogger) *MQTTPublisher {
	if prefix = strings.Trim(prefix, "/"); prefix == "" {
		prefix = DefaultTopicPrefix
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MQTTPublisher{client: client, prefix: prefix, timeout: publishTimeout, log: log}
}

// Topic returns the status topic of requestID.
func (p *MQTTPublisher) Topic(requestID string) string {
	return p.prefix + "/trips/" + requestID + "/status"
}

// Publish sends v and waits for the broker acknowledgement.
func (p *MQTTPublisher) Publish(v tracker.View) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode trip view: %w", err)
	}
	token := p.client.Publish(p.Topic(v.RequestID), statusQoS, true, payload)
	if !token.WaitTimeout(p.timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// TripUpdated implements tracker.Observer. Failures are logged, never returned.
func (p *MQTTPublisher) TripUpdated(v tracker.View) {
	if err := p.Publish(v); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"request_id": v.RequestID,
			"topic":      p.Topic(v.RequestID),
		}).Warn("Failed to publish trip update")
	}
}
