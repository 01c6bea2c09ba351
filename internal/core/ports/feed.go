package ports

import (
	"context"

	"github.com/samirrijal/vlille/internal/core/domain"
)

// StationFeed reads the two upstream payloads and decodes them into typed
// records. Implementations return *domain.FetchError for transport
// failures and *domain.ParseError for malformed documents.
type StationFeed interface {
	ListStations(ctx context.Context) (*domain.StationList, error)
	StationDetail(ctx context.Context, stationID int) (*domain.DetailRecord, error)
}
