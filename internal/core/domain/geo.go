package domain

// MapCenter is where a map should be positioned to show the whole network.
type MapCenter struct {
	Lat       float64 `json:"center_lat"`
	Lng       float64 `json:"center_lng"`
	ZoomLevel float64 `json:"zoom_level"`
}

// NearbyStation is a station with its distance to a query point.
type NearbyStation struct {
	*Station
	DistanceMeters float64 `json:"distance_meters"`
}
