package ports

import (
	"context"

	"github.com/samirrijal/vlille/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishNetworkLoaded(ctx context.Context, summary *domain.NetworkSummary) error
	PublishStationStatus(ctx context.Context, station *domain.Station) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeNetworkLoaded(ctx context.Context, handler func(ctx context.Context, summary *domain.NetworkSummary) error) error
	SubscribeStationStatus(ctx context.Context, handler func(ctx context.Context, station *domain.Station) error) error
}
