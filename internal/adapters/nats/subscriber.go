package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/vlille/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own connection. durable
// prefixes the consumer names so several services can follow the stream.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

func (s *Subscriber) SubscribeNetworkLoaded(ctx context.Context, handler func(ctx context.Context, summary *domain.NetworkSummary) error) error {
	sub, err := s.js.Subscribe(SubjectNetworkLoaded, func(msg *nats.Msg) {
		var summary domain.NetworkSummary
		if err := json.Unmarshal(msg.Data, &summary); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &summary); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable+"-network"),
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeStationStatus(ctx context.Context, handler func(ctx context.Context, st *domain.Station) error) error {
	sub, err := s.js.Subscribe(SubjectAllStations, func(msg *nats.Msg) {
		var st domain.Station
		if err := json.Unmarshal(msg.Data, &st); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &st); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable+"-stations"),
		nats.DeliverLastPerSubject(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
