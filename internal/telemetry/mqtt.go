// mqtt.go

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/SMerrony/tellopath/flightpath"
	"github.com/SMerrony/tellopath/internal/config"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds
	defaultKeepAlive         = 30 * time.Second
)

// mqttClient is the part of pahomqtt.Client a Publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Publisher publishes flight events to MQTT. It implements flightpath.Reporter.
type Publisher struct {
	client mqttClient
	topics Topics
	qos    byte
	id     string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

var _ flightpath.Reporter = (*Publisher)(nil)

// ConnectMQTT connects to the broker in cfg and announces the flight as online.
func ConnectMQTT(cfg config.MQTTConfig, logger *slog.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	topics := Topics{Prefix: cfg.TopicPrefix}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetWill(topics.Status(), string(statusPayload(cfg.ClientID, "offline", "unexpected_disconnect")), 1, true)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	p := newPublisher(client, topics, byte(cfg.QoS), cfg.ClientID, logger)
	p.publish(topics.Status(), true, statusPayload(cfg.ClientID, "online", ""))
	return p, nil
}

func newPublisher(client mqttClient, topics Topics, qos byte, id string, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, topics: topics, qos: qos, id: id, logger: logger}
}

// Report publishes ev. State changes are also kept, retained, on the state topic.
// Report does not wait for the broker.
func (p *Publisher) Report(ev flightpath.Event) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("encoding flight event", "kind", ev.Kind, "err", err)
		return
	}
	p.publish(p.topics.Event(ev.Kind), false, payload)
	if ev.Kind == flightpath.EventStateChanged {
		p.publish(p.topics.State(), true, payload)
	}
}

func (p *Publisher) publish(topic string, retained bool, payload interface{}) {
	token := p.client.Publish(topic, p.qos, retained, payload)
	go func() {
		if !token.WaitTimeout(defaultPublishTimeout) {
			p.logger.Warn("mqtt publish timed out", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("mqtt publish failed", "topic", topic, "err", err)
		}
	}()
}

// Close marks the flight offline and disconnects. Reports after Close are dropped.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	token := p.client.Publish(p.topics.Status(), p.qos, true, statusPayload(p.id, "offline", "graceful_shutdown"))
	token.WaitTimeout(defaultPublishTimeout)
	p.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

// Topics builds the topic names under Prefix.
type Topics struct {
	Prefix string
}

// Status is the retained online/offline topic.
func (t Topics) Status() string { return t.join("status") }

// State is the retained topic holding the latest follower state change.
func (t Topics) State() string { return t.join("state") }

// Event is the topic for events of the given kind.
func (t Topics) Event(kind flightpath.EventKind) string { return t.join("events/" + string(kind)) }

func (t Topics) join(suffix string) string {
	if t.Prefix == "" {
		return suffix
	}
	return t.Prefix + "/" + suffix
}

type statusMessage struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

func statusPayload(clientID, status, reason string) []byte {
	b, _ := json.Marshal(statusMessage{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return b
}
