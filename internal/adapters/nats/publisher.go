package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

// Subjects and streams.
const (
	LocatedSubjects     = "pinpoint.located.>"
	AmenityRequestsSubj = "pinpoint.requests.amenities"

	locatedStream  = "PINPOINT_LOCATED"
	requestsStream = "PINPOINT_REQUESTS"
)

// LocatedSubject is the subject a located event for locationID is published on.
func LocatedSubject(locationID string) string {
	return "pinpoint.located." + locationID
}

// Streams returns the JetStream streams Pinpoint relies on.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      locatedStream,
			Subjects:  []string{LocatedSubjects},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      requestsStream,
			Subjects:  []string{"pinpoint.requests.>"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	for _, cfg := range Streams() {
		cfg := cfg
		if _, err := js.AddStream(&cfg); err != nil {
			// The stream may already exist, so update it instead.
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

func (p *Publisher) PublishLocated(ctx context.Context, ev *domain.LocatedEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(LocatedSubject(ev.LocationID), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishAmenityRequest(ctx context.Context, req *domain.AmenityLocateRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	// MsgId lets JetStream drop duplicate submissions of the same request.
	_, err = p.js.Publish(AmenityRequestsSubj, data, nats.Context(ctx), nats.MsgId(req.RequestID))
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("pinpoint"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
