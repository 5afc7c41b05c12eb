// Package mqtt publishes recorded answers to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/logging"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// DefaultTimeout bounds a single publish.
const DefaultTimeout = 5 * time.Second

// Publisher implements ports.AnswerPublisher over MQTT.
type Publisher struct {
	client  paho.Client
	topic   string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithQoS sets the delivery QoS (0, 1 or 2). Defaults to 1.
func WithQoS(qos byte) Option {
	return func(p *Publisher) {
		p.qos = qos
	}
}

// WithTimeout bounds each publish.
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New creates a publisher on an already connected client.
func New(client paho.Client, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		topic:   topic,
		qos:     1,
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials broker (e.g. tcp://localhost:1883) with automatic reconnects.
func Connect(broker, clientID string, timeout time.Duration) (paho.Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("timed out connecting to %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", broker, err)
	}
	return client, nil
}

// Publish sends the answer as JSON to the configured topic.
func (p *Publisher) Publish(ctx context.Context, event domain.AnswerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token := p.client.Publish(p.topic, p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", p.topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.logger.Debug("Published answer", "topic", p.topic, "addr", event.Addr, "state", event.State)
	return nil
}

// Close disconnects from the broker, allowing in-flight work a short grace period.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
