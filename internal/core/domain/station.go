package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/vlille/internal/pkg/frduration"
)

// StationStatus is the operating state reported by the detail feed.
type StationStatus string

const (
	StatusUnknown    StationStatus = "unknown"
	StatusWorking    StationStatus = "working"
	StatusNotWorking StationStatus = "not_working"
)

// PaymentTerminal tells whether a station has a card terminal.
type PaymentTerminal string

const (
	PaymentUnknown     PaymentTerminal = "unknown"
	PaymentAvailable   PaymentTerminal = "available"
	PaymentUnavailable PaymentTerminal = "unavailable"
)

// paymentWithTerminal is the upstream value for stations with a terminal.
const paymentWithTerminal = "AVEC_TPE"

// UnknownLastUpdate marks a recency string that could not be parsed.
const UnknownLastUpdate int64 = -1

// Station is one docking station of the network.
type Station struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`

	// Live is nil until the station detail feed has been loaded.
	Live *LiveStatus `json:"live,omitempty"`
}

// LiveStatus is the per-station data coming from the detail feed.
type LiveStatus struct {
	Address         string          `json:"address"`
	Status          StationStatus   `json:"status"`
	BikesAvailable  int             `json:"bikes_available"`
	DocksAvailable  int             `json:"docks_available"`
	PaymentTerminal PaymentTerminal `json:"payment_terminal"`
	LastUpdateEpoch int64           `json:"last_update_epoch"` // -1 when unknown
	FetchedAt       time.Time       `json:"fetched_at"`
}

// NewStation builds a station from a station-list marker.
// id, lat and lng must be numeric; name is kept verbatim.
func NewStation(rec MarkerRecord) (*Station, error) {
	id, err := parseInt("id", rec.ID)
	if err != nil {
		return nil, err
	}
	lat, err := parseFloat("lat", rec.Lat)
	if err != nil {
		return nil, err
	}
	lng, err := parseFloat("lng", rec.Lng)
	if err != nil {
		return nil, err
	}
	return &Station{ID: id, Name: rec.Name, Lat: lat, Lng: lng}, nil
}

// ApplyDetail parses a detail record and replaces the live status.
// On error the previous live status is left as it was.
func (s *Station) ApplyDetail(rec DetailRecord, now time.Time) error {
	bikes, err := parseCount("bikes", rec.Bikes)
	if err != nil {
		return err
	}
	docks, err := parseCount("attachs", rec.Attachs)
	if err != nil {
		return err
	}

	s.Live = &LiveStatus{
		Address:         rec.Address,
		Status:          statusFromCode(rec.Status),
		BikesAvailable:  bikes,
		DocksAvailable:  docks,
		PaymentTerminal: paymentFromText(rec.Payment),
		LastUpdateEpoch: frduration.EpochFrom(now, rec.LastUpdate),
		FetchedAt:       now,
	}
	return nil
}

// Detailed reports whether the live status has been loaded.
func (s *Station) Detailed() bool {
	return s.Live != nil
}

// Status returns StatusUnknown until details are loaded.
func (s *Station) Status() StationStatus {
	if s.Live == nil {
		return StatusUnknown
	}
	return s.Live.Status
}

// PaymentTerminal returns PaymentUnknown until details are loaded.
func (s *Station) PaymentTerminal() PaymentTerminal {
	if s.Live == nil {
		return PaymentUnknown
	}
	return s.Live.PaymentTerminal
}

func (s *Station) Address() (string, bool) {
	if s.Live == nil {
		return "", false
	}
	return s.Live.Address, true
}

func (s *Station) BikesAvailable() (int, bool) {
	if s.Live == nil {
		return 0, false
	}
	return s.Live.BikesAvailable, true
}

func (s *Station) DocksAvailable() (int, bool) {
	if s.Live == nil {
		return 0, false
	}
	return s.Live.DocksAvailable, true
}

func (s *Station) LastUpdateEpoch() (int64, bool) {
	if s.Live == nil {
		return 0, false
	}
	return s.Live.LastUpdateEpoch, true
}

// Clone returns a copy of s that shares no memory with it.
func (s *Station) Clone() *Station {
	c := *s
	if s.Live != nil {
		live := *s.Live
		c.Live = &live
	}
	return &c
}

// statusFromCode maps the numeric status: 0 is working, anything else is not.
func statusFromCode(code string) StationStatus {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err == nil && n == 0 {
		return StatusWorking
	}
	return StatusNotWorking
}

func paymentFromText(v string) PaymentTerminal {
	if v == paymentWithTerminal {
		return PaymentAvailable
	}
	return PaymentUnavailable
}

func parseInt(field, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &ParseError{Field: field, Value: v, Err: err}
	}
	return n, nil
}

func parseCount(field, v string) (int, error) {
	n, err := parseInt(field, v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &ParseError{Field: field, Value: v, Err: ErrNegativeCount}
	}
	return n, nil
}

func parseFloat(field, v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: v, Err: err}
	}
	return f, nil
}
