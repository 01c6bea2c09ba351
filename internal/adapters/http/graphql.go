package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/vlille/internal/core/domain"
	"github.com/samirrijal/vlille/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to the network.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	mapCenterType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapCenter",
		Fields: graphql.Fields{
			"center_lat": &graphql.Field{Type: graphql.Float},
			"center_lng": &graphql.Field{Type: graphql.Float},
			"zoom_level": &graphql.Field{Type: graphql.Float},
		},
	})

	networkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Network",
		Fields: graphql.Fields{
			"center":    &graphql.Field{Type: mapCenterType},
			"stations":  &graphql.Field{Type: graphql.Int},
			"detailed":  &graphql.Field{Type: graphql.Boolean},
			"loaded_at": &graphql.Field{Type: graphql.String},
		},
	})

	liveType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LiveStatus",
		Fields: graphql.Fields{
			"address":           &graphql.Field{Type: graphql.String},
			"status":            &graphql.Field{Type: graphql.String},
			"bikes_available":   &graphql.Field{Type: graphql.Int},
			"docks_available":   &graphql.Field{Type: graphql.Int},
			"payment_terminal":  &graphql.Field{Type: graphql.String},
			"last_update_epoch": &graphql.Field{Type: graphql.Float, Description: "Unix seconds, -1 when unknown"},
			"fetched_at":        &graphql.Field{Type: graphql.String},
		},
	})

	stationFields := func() graphql.Fields {
		return graphql.Fields{
			"id":   &graphql.Field{Type: graphql.Int},
			"name": &graphql.Field{Type: graphql.String},
			"lat":  &graphql.Field{Type: graphql.Float},
			"lng":  &graphql.Field{Type: graphql.Float},
			"live": &graphql.Field{Type: liveType, Description: "Null until the station status is loaded"},
		}
	}

	stationType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Station",
		Fields: stationFields(),
	})

	nearbyFields := stationFields()
	nearbyFields["distance_meters"] = &graphql.Field{Type: graphql.Float}
	nearbyType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "NearbyStation",
		Fields: nearbyFields,
	})

	idArgs := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"network": &graphql.Field{
				Type:        networkType,
				Description: "Map position and load metadata",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var out interface{}
					err := deps.withNetwork(p.Context, func(n *usecases.Network) error {
						out = summaryMap(n.Summary())
						return nil
					})
					return out, err
				},
			},
			"stations": &graphql.Field{
				Type:        graphql.NewList(stationType),
				Description: "All stations in feed order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var out []map[string]interface{}
					err := deps.withNetwork(p.Context, func(n *usecases.Network) error {
						for _, st := range n.Stations() {
							out = append(out, stationMap(st))
						}
						return nil
					})
					return out, err
				},
			},
			"station": &graphql.Field{
				Type:        stationType,
				Description: "Get a station by id",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(int)
					// stays a nil interface for unknown ids so the field resolves to null
					var out interface{}
					err := deps.withNetwork(p.Context, func(n *usecases.Network) error {
						if st, ok := n.FindStation(id); ok {
							out = stationMap(st)
						}
						return nil
					})
					return out, err
				},
			},
			"stationStatus": &graphql.Field{
				Type:        stationType,
				Description: "Fetch the live status of a station",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(int)
					var out map[string]interface{}
					err := deps.withNetwork(p.Context, func(n *usecases.Network) error {
						st, err := n.LoadStationDetails(p.Context, id)
						if err != nil {
							return err
						}
						out = stationMap(st)
						return nil
					})
					return out, err
				},
			},
			"stationsNearby": &graphql.Field{
				Type:        graphql.NewList(nearbyType),
				Description: "Find stations near a location, closest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: defaultNearbyRadius},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultNearbyLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lng := p.Args["lng"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					var out []map[string]interface{}
					err := deps.withNetwork(p.Context, func(n *usecases.Network) error {
						for _, ns := range n.Nearby(lat, lng, radius, limit) {
							m := stationMap(ns.Station)
							m["distance_meters"] = ns.DistanceMeters
							out = append(out, m)
						}
						return nil
					})
					return out, err
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func summaryMap(s *domain.NetworkSummary) map[string]interface{} {
	if s == nil {
		return nil
	}
	m := map[string]interface{}{
		"stations":  s.Stations,
		"detailed":  s.Detailed,
		"loaded_at": s.LoadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if s.Center != nil {
		m["center"] = map[string]interface{}{
			"center_lat": s.Center.Lat,
			"center_lng": s.Center.Lng,
			"zoom_level": s.Center.ZoomLevel,
		}
	}
	return m
}

// stationMap converts a station for graphql-go's map resolver.
func stationMap(st *domain.Station) map[string]interface{} {
	m := map[string]interface{}{
		"id":   st.ID,
		"name": st.Name,
		"lat":  st.Lat,
		"lng":  st.Lng,
	}
	if st.Live != nil {
		m["live"] = map[string]interface{}{
			"address":           st.Live.Address,
			"status":            string(st.Live.Status),
			"bikes_available":   st.Live.BikesAvailable,
			"docks_available":   st.Live.DocksAvailable,
			"payment_terminal":  string(st.Live.PaymentTerminal),
			"last_update_epoch": float64(st.Live.LastUpdateEpoch),
			"fetched_at":        st.Live.FetchedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	return m
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})
		if result.HasErrors() {
			LoggerFromCtx(c.UserContext()).Warn("graphql query failed",
				"request_id", RequestIDFromCtx(c.UserContext()),
				"errors", len(result.Errors),
			)
		}

		return c.JSON(result)
	}
}
