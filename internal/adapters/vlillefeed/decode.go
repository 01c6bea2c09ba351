package vlillefeed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/samirrijal/vlille/internal/core/domain"
)

var errUnexpectedStatus = errors.New("unexpected status")

// markersXML is the station-list payload:
//
//	<markers center_lat=".." center_lng=".." zoom_level="..">
//	  <marker id=".." name=".." lat=".." lng=".."/>
//	</markers>
type markersXML struct {
	XMLName   xml.Name    `xml:"markers"`
	CenterLat string      `xml:"center_lat,attr"`
	CenterLng string      `xml:"center_lng,attr"`
	ZoomLevel string      `xml:"zoom_level,attr"`
	Markers   []markerXML `xml:"marker"`
}

type markerXML struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
	Lat  string `xml:"lat,attr"`
	Lng  string `xml:"lng,attr"`
}

// stationXML is the per-station payload. Element names are the upstream ones.
type stationXML struct {
	XMLName    xml.Name `xml:"station"`
	Adress     string   `xml:"adress"`
	Status     string   `xml:"status"`
	Bikes      string   `xml:"bikes"`
	Attachs    string   `xml:"attachs"`
	Paiement   string   `xml:"paiement"`
	LastUpdate string   `xml:"lastupd"`
}

func decodeStationList(body []byte) (*domain.StationList, error) {
	var doc markersXML
	if err := decode(body, &doc); err != nil {
		return nil, err
	}

	list := &domain.StationList{
		CenterLat: doc.CenterLat,
		CenterLng: doc.CenterLng,
		ZoomLevel: doc.ZoomLevel,
		Markers:   make([]domain.MarkerRecord, 0, len(doc.Markers)),
	}
	for _, m := range doc.Markers {
		list.Markers = append(list.Markers, domain.MarkerRecord{
			ID:   m.ID,
			Name: m.Name,
			Lat:  m.Lat,
			Lng:  m.Lng,
		})
	}
	return list, nil
}

func decodeStationDetail(body []byte) (*domain.DetailRecord, error) {
	var doc stationXML
	if err := decode(body, &doc); err != nil {
		return nil, err
	}
	return &domain.DetailRecord{
		Address:    doc.Adress,
		Bikes:      doc.Bikes,
		Attachs:    doc.Attachs,
		LastUpdate: doc.LastUpdate,
		Status:     doc.Status,
		Payment:    doc.Paiement,
	}, nil
}

func decode(body []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(v); err != nil {
		return &domain.ParseError{Err: err}
	}
	return nil
}

// charsetReader honors the declared encoding, except for UTF-16: the feed
// declares utf-16 while sending 8-bit text. Such bodies are read as UTF-8
// when valid and as Windows-1252 otherwise.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(label)), "utf-16") {
		return charset.NewReaderLabel(label, input)
	}

	raw, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}
	r, err := charset.NewReaderLabel("windows-1252", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("mislabelled utf-16 body: %w", err)
	}
	return r, nil
}
