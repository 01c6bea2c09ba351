package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/vlille/internal/core/domain"
)

// Subjects carried by the VLILLE stream.
const (
	streamName = "VLILLE"

	SubjectNetworkLoaded = "vlille.network.loaded"
	SubjectStationPrefix = "vlille.station."
	SubjectAllStations   = SubjectStationPrefix + "*"
)

// StationSubject returns the subject for one station's status events.
func StationSubject(id int) string {
	return fmt.Sprintf("%s%d", SubjectStationPrefix, id)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the VLILLE stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"vlille.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.FileStorage,
		// only the latest status of each station is worth replaying
		MaxMsgsPerSubject: 1,
	}
	if _, err := js.AddStream(cfg); err != nil {
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishNetworkLoaded(ctx context.Context, summary *domain.NetworkSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectNetworkLoaded, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishStationStatus(ctx context.Context, st *domain.Station) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(StationSubject(st.ID), data, nats.Context(ctx))
	return err
}

// Connected reports whether the underlying connection is up.
func (p *Publisher) Connected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("vlille"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
