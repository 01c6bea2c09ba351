package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/vlille/internal/core/domain"
	"github.com/samirrijal/vlille/internal/pkg/geospatial"
	"github.com/samirrijal/vlille/internal/pkg/telemetry"
)

// Network holds the stations of the bike-sharing network and the map
// position that encompasses them.
//
// A Network is not safe for concurrent use; callers sharing one across
// goroutines must serialize Load, Reset and reads themselves.
type Network struct {
	stations *StationService
	snap     *snapshot
}

// snapshot is replaced as a whole by each successful Load.
type snapshot struct {
	stations []*domain.Station
	center   domain.MapCenter
	detailed bool
	loadedAt time.Time
}

// NewNetwork creates an empty Network. Load must be called to fill it.
func NewNetwork(stations *StationService) *Network {
	return &Network{stations: stations}
}

// Load fetches the station list and, if includeDetails is set, the live
// status of every station, one at a time in feed order.
//
// The previous content is replaced only when the whole load succeeds; on
// error the Network keeps what it had before.
func (n *Network) Load(ctx context.Context, includeDetails bool) error {
	ctx, span := telemetry.Tracer().Start(ctx, "Network.Load",
		trace.WithAttributes(attribute.Bool(telemetry.AttrIncludeDetails, includeDetails)))
	defer span.End()

	snap, err := n.build(ctx, includeDetails)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrStations, len(snap.stations)))

	n.snap = snap
	slog.Info("network loaded",
		"stations", len(snap.stations),
		"detailed", includeDetails,
		"center_lat", snap.center.Lat,
		"center_lng", snap.center.Lng,
	)

	if includeDetails {
		for _, st := range snap.stations {
			n.stations.publishStation(ctx, st)
		}
	}
	n.publishSummary(ctx)
	return nil
}

func (n *Network) build(ctx context.Context, includeDetails bool) (*snapshot, error) {
	list, err := n.stations.feed.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load station list: %w", err)
	}

	center, err := list.Center()
	if err != nil {
		return nil, fmt.Errorf("load station list: %w", err)
	}

	stations := make([]*domain.Station, 0, len(list.Markers))
	for i, marker := range list.Markers {
		st, err := domain.NewStation(marker)
		if err != nil {
			return nil, fmt.Errorf("station entry %d: %w", i, err)
		}
		if includeDetails {
			if err := n.stations.fetchDetails(ctx, st); err != nil {
				return nil, err
			}
		}
		stations = append(stations, st)
	}

	return &snapshot{
		stations: stations,
		center:   *center,
		detailed: includeDetails,
		loadedAt: n.stations.now(),
	}, nil
}

// Reset clears all stations and the map position.
func (n *Network) Reset() {
	n.snap = nil
}

// Loaded reports whether a Load has succeeded since the last Reset.
func (n *Network) Loaded() bool {
	return n.snap != nil
}

// Stations returns the stations in feed order.
func (n *Network) Stations() []*domain.Station {
	if n.snap == nil {
		return []*domain.Station{}
	}
	out := make([]*domain.Station, len(n.snap.stations))
	copy(out, n.snap.stations)
	return out
}

// Len returns the number of loaded stations.
func (n *Network) Len() int {
	if n.snap == nil {
		return 0
	}
	return len(n.snap.stations)
}

// Center returns the map position, or nil before the first Load.
func (n *Network) Center() *domain.MapCenter {
	if n.snap == nil {
		return nil
	}
	c := n.snap.center
	return &c
}

// LoadedAt returns when the current content was loaded.
func (n *Network) LoadedAt() time.Time {
	if n.snap == nil {
		return time.Time{}
	}
	return n.snap.loadedAt
}

// Summary describes the current content, or nil before the first Load.
func (n *Network) Summary() *domain.NetworkSummary {
	if n.snap == nil {
		return nil
	}
	return &domain.NetworkSummary{
		Center:   n.Center(),
		Stations: len(n.snap.stations),
		Detailed: n.snap.detailed,
		LoadedAt: n.snap.loadedAt,
	}
}

// FindStation returns the first station with the given id.
func (n *Network) FindStation(id int) (*domain.Station, bool) {
	if n.snap == nil {
		return nil, false
	}
	for _, st := range n.snap.stations {
		if st.ID == id {
			return st, true
		}
	}
	return nil, false
}

// LoadStationDetails refreshes the live status of one loaded station.
func (n *Network) LoadStationDetails(ctx context.Context, id int) (*domain.Station, error) {
	st, ok := n.FindStation(id)
	if !ok {
		return nil, fmt.Errorf("station %d: %w", id, domain.ErrStationNotFound)
	}
	if err := n.stations.LoadDetails(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Nearby returns stations within radiusMeters of the given point,
// closest first. limit <= 0 means no limit.
func (n *Network) Nearby(lat, lng, radiusMeters float64, limit int) []domain.NearbyStation {
	if n.snap == nil {
		return []domain.NearbyStation{}
	}

	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(lat, lng, radiusMeters)
	out := make([]domain.NearbyStation, 0)
	for _, st := range n.snap.stations {
		if st.Lat < minLat || st.Lat > maxLat || st.Lng < minLng || st.Lng > maxLng {
			continue
		}
		d := geospatial.Haversine(lat, lng, st.Lat, st.Lng)
		if d <= radiusMeters {
			out = append(out, domain.NearbyStation{Station: st, DistanceMeters: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMeters < out[j].DistanceMeters
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (n *Network) publishSummary(ctx context.Context) {
	if n.stations.publisher == nil {
		return
	}
	if err := n.stations.publisher.PublishNetworkLoaded(ctx, n.Summary()); err != nil {
		slog.Warn("publish network summary failed", "error", err)
	}
}
