package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/vlille/internal/core/domain"
	"github.com/samirrijal/vlille/internal/core/ports"
)

// StationService loads the live status of single stations.
type StationService struct {
	feed      ports.StationFeed
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewStationService creates a new StationService. publisher may be nil.
func NewStationService(feed ports.StationFeed, publisher ports.EventPublisher) *StationService {
	return &StationService{feed: feed, publisher: publisher, now: time.Now}
}

// WithClock replaces the clock used to turn "time since last update"
// phrases into timestamps.
func (s *StationService) WithClock(now func() time.Time) *StationService {
	s.now = now
	return s
}

// LoadDetails fetches the detail feed for st and overwrites its live status.
func (s *StationService) LoadDetails(ctx context.Context, st *domain.Station) error {
	if err := s.fetchDetails(ctx, st); err != nil {
		return err
	}
	s.publishStation(ctx, st)
	return nil
}

func (s *StationService) fetchDetails(ctx context.Context, st *domain.Station) error {
	rec, err := s.feed.StationDetail(ctx, st.ID)
	if err != nil {
		return fmt.Errorf("station %d details: %w", st.ID, err)
	}
	if err := st.ApplyDetail(*rec, s.now()); err != nil {
		return fmt.Errorf("station %d details: %w", st.ID, err)
	}
	slog.Debug("station details loaded",
		"station_id", st.ID,
		"status", st.Live.Status,
		"bikes", st.Live.BikesAvailable,
		"docks", st.Live.DocksAvailable,
	)
	return nil
}

// publishStation is best-effort; a broker outage never fails a load.
func (s *StationService) publishStation(ctx context.Context, st *domain.Station) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStationStatus(ctx, st); err != nil {
		slog.Warn("publish station status failed", "station_id", st.ID, "error", err)
	}
}
