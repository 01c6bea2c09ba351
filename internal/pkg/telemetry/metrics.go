package telemetry

// Span attribute keys shared by the feed adapter and the network loader.
const (
	AttrEndpoint       = "vlille.feed.endpoint"
	AttrStationID      = "vlille.station.id"
	AttrStatusCode     = "http.status_code"
	AttrIncludeDetails = "vlille.include_details"
	AttrStations       = "vlille.stations"
)
