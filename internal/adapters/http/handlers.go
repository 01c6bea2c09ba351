package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/vlille/internal/core/domain"
	"github.com/samirrijal/vlille/internal/core/usecases"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500

	defaultNearbyRadius = 500.0
	maxNearbyRadius     = 10000.0
	defaultNearbyLimit  = 20
	maxNearbyLimit      = 200
)

// NetworkHandler returns the map position and load metadata.
// ?refresh=true reloads the network from the feed first.
func NetworkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var summary *domain.NetworkSummary
		read := func(n *usecases.Network) error {
			summary = n.Summary()
			return nil
		}

		var err error
		if c.QueryBool("refresh", false) {
			err = deps.reload(c.UserContext(), deps.LoadDetails, read)
		} else {
			err = deps.withNetwork(c.UserContext(), read)
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(summary)
	}
}

// ListStationsHandler returns stations in feed order, paginated.
// ?details=true reloads the network with every station's live status.
func ListStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", defaultPageLimit)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > maxPageLimit {
			limit = defaultPageLimit
		}

		// stations are copied under the lock; a concurrent status request
		// may rewrite their live data once it is released.
		var stations []*domain.Station
		read := func(n *usecases.Network) error {
			stations = cloneStations(n.Stations())
			return nil
		}

		var err error
		if c.QueryBool("details", false) {
			err = deps.reload(c.UserContext(), true, read)
		} else {
			err = deps.withNetwork(c.UserContext(), read)
		}
		if err != nil {
			return errFromDomain(c, err)
		}

		total := len(stations)
		if offset >= total {
			stations = []*domain.Station{}
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			stations = stations[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: stations, Pagination: pg})
	}
}

// NearbyStationsHandler returns stations within a radius of a point.
func NearbyStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return errBadRequest(c, "lat and lng are required")
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return errBadRequest(c, "lat or lng out of range")
		}

		radius := c.QueryFloat("radius", defaultNearbyRadius)
		if radius <= 0 || radius > maxNearbyRadius {
			return errBadRequest(c, "radius must be between 1 and 10000 meters")
		}
		limit := c.QueryInt("limit", defaultNearbyLimit)
		if limit <= 0 || limit > maxNearbyLimit {
			limit = defaultNearbyLimit
		}

		var nearby []domain.NearbyStation
		err := deps.withNetwork(c.UserContext(), func(n *usecases.Network) error {
			nearby = n.Nearby(lat, lng, radius, limit)
			for i := range nearby {
				nearby[i].Station = nearby[i].Station.Clone()
			}
			return nil
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(nearby)
	}
}

// GetStationHandler returns one station as last loaded.
func GetStationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := stationID(c)
		if err != nil {
			return errBadRequest(c, "station id must be an integer")
		}

		var st *domain.Station
		err = deps.withNetwork(c.UserContext(), func(n *usecases.Network) error {
			found, ok := n.FindStation(id)
			if !ok {
				return domain.ErrStationNotFound
			}
			st = found.Clone()
			return nil
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(st)
	}
}

// StationStatusHandler fetches the live status of one station.
func StationStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := stationID(c)
		if err != nil {
			return errBadRequest(c, "station id must be an integer")
		}

		var st *domain.Station
		err = deps.withNetwork(c.UserContext(), func(n *usecases.Network) error {
			loaded, err := n.LoadStationDetails(c.UserContext(), id)
			if err != nil {
				return err
			}
			st = loaded.Clone()
			return nil
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(st)
	}
}

func cloneStations(in []*domain.Station) []*domain.Station {
	out := make([]*domain.Station, len(in))
	for i, st := range in {
		out[i] = st.Clone()
	}
	return out
}

func stationID(c *fiber.Ctx) (int, error) {
	return strconv.Atoi(c.Params("id"))
}
