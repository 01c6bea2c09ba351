package domain

// The records below are the typed shape of the two upstream payloads.
// Values are kept as raw text; numeric coercion happens in this package.

// StationList is the decoded station-list feed.
type StationList struct {
	CenterLat string
	CenterLng string
	ZoomLevel string
	Markers   []MarkerRecord
}

// MarkerRecord is one station entry of the list feed.
type MarkerRecord struct {
	ID   string
	Name string
	Lat  string
	Lng  string
}

// DetailRecord is the decoded per-station detail feed.
type DetailRecord struct {
	Address    string // upstream key "adress"
	Bikes      string
	Attachs    string // free docks
	LastUpdate string // e.g. "6 heure(s) 4 minute(s) 2 secondes"
	Status     string // numeric code, "0" means working
	Payment    string // upstream key "paiement"
}

// Center parses the map-centering fields of the list feed.
func (l *StationList) Center() (*MapCenter, error) {
	lat, err := parseFloat("center_lat", l.CenterLat)
	if err != nil {
		return nil, err
	}
	lng, err := parseFloat("center_lng", l.CenterLng)
	if err != nil {
		return nil, err
	}
	zoom, err := parseFloat("zoom_level", l.ZoomLevel)
	if err != nil {
		return nil, err
	}
	return &MapCenter{Lat: lat, Lng: lng, ZoomLevel: zoom}, nil
}
