package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeAmenityRequests consumes queued amenity locate requests. A
// handler error naks the message so it is redelivered, up to three times.
func (s *Subscriber) SubscribeAmenityRequests(ctx context.Context, handler func(ctx context.Context, req *domain.AmenityLocateRequest) error) error {
	sub, err := s.js.Subscribe(AmenityRequestsSubj, amenityRequestHandler(ctx, handler),
		nats.Durable("amenity-locator"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// acker is the part of *nats.Msg the handler needs.
type acker interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

func amenityRequestHandler(ctx context.Context, handler func(ctx context.Context, req *domain.AmenityLocateRequest) error) nats.MsgHandler {
	return func(msg *nats.Msg) {
		handleAmenityRequest(ctx, msg.Data, msg, handler)
	}
}

func handleAmenityRequest(ctx context.Context, data []byte, m acker, handler func(ctx context.Context, req *domain.AmenityLocateRequest) error) {
	var req domain.AmenityLocateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		// a malformed payload will never decode, stop redelivery
		slog.Warn("dropping malformed amenity request", "error", err)
		_ = m.Term()
		return
	}
	if err := handler(ctx, &req); err != nil {
		slog.Warn("amenity request failed", "request_id", req.RequestID, "error", err)
		_ = m.Nak()
		return
	}
	_ = m.Ack()
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
