package usecases_test

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/vlille/internal/core/domain"
)

var fixedNow = time.Unix(1700000000, 0)

func fixedClock() time.Time { return fixedNow }

// --- Mock StationFeed ---

type mockFeed struct {
	listFn   func(ctx context.Context) (*domain.StationList, error)
	detailFn func(ctx context.Context, stationID int) (*domain.DetailRecord, error)

	listCalls   int
	detailCalls []int
}

func (m *mockFeed) ListStations(ctx context.Context) (*domain.StationList, error) {
	m.listCalls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return &domain.StationList{CenterLat: "0", CenterLng: "0", ZoomLevel: "0"}, nil
}

func (m *mockFeed) StationDetail(ctx context.Context, stationID int) (*domain.DetailRecord, error) {
	m.detailCalls = append(m.detailCalls, stationID)
	if m.detailFn != nil {
		return m.detailFn(ctx, stationID)
	}
	return nil, fmt.Errorf("no detail for %d", stationID)
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	networkFn func(ctx context.Context, summary *domain.NetworkSummary) error
	stationFn func(ctx context.Context, st *domain.Station) error

	summaries []*domain.NetworkSummary
	stations  []int
}

func (m *mockPublisher) PublishNetworkLoaded(ctx context.Context, summary *domain.NetworkSummary) error {
	m.summaries = append(m.summaries, summary)
	if m.networkFn != nil {
		return m.networkFn(ctx, summary)
	}
	return nil
}

func (m *mockPublisher) PublishStationStatus(ctx context.Context, st *domain.Station) error {
	m.stations = append(m.stations, st.ID)
	if m.stationFn != nil {
		return m.stationFn(ctx, st)
	}
	return nil
}

// --- Fixtures ---

func lilleList() *domain.StationList {
	return &domain.StationList{
		CenterLat: "50.675",
		CenterLng: "3.1",
		ZoomLevel: "12",
		Markers: []domain.MarkerRecord{
			{ID: "1", Name: "Lille Metropole", Lat: "50.6419", Lng: "3.07599"},
			{ID: "10", Name: "Rihour", Lat: "50.6359", Lng: "3.06247"},
		},
	}
}

func lilleDetails() map[int]domain.DetailRecord {
	return map[int]domain.DetailRecord{
		1: {
			Address:    "LMCU RUE DU BALLON ",
			Bikes:      "6",
			Attachs:    "30",
			LastUpdate: "2 secondes",
			Status:     "0",
			Payment:    "AVEC_TPE",
		},
		10: {
			Address:    "ANGLE PLACE RIHOUR RUE JEAN ROISIN ",
			Bikes:      "12",
			Attachs:    "20",
			LastUpdate: "6 heure(s) 4 minute(s) 2 secondes",
			Status:     "0",
			Payment:    "SANS_TPE",
		},
	}
}

func lilleFeed() *mockFeed {
	details := lilleDetails()
	return &mockFeed{
		listFn: func(ctx context.Context) (*domain.StationList, error) {
			return lilleList(), nil
		},
		detailFn: func(ctx context.Context, id int) (*domain.DetailRecord, error) {
			rec, ok := details[id]
			if !ok {
				return nil, &domain.FetchError{Endpoint: "station", StationID: id, StatusCode: 404}
			}
			return &rec, nil
		},
	}
}
