package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/vlille/internal/core/domain"
)

var fixedNow = time.Unix(1700000000, 0)

func TestNewStation(t *testing.T) {
	st, err := domain.NewStation(domain.MarkerRecord{ID: "1", Name: "Lille Metropole", Lat: "50.6419", Lng: "3.07599"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.ID != 1 || st.Name != "Lille Metropole" {
		t.Errorf("unexpected identity: %+v", st)
	}
	if st.Lat != 50.6419 || st.Lng != 3.07599 {
		t.Errorf("unexpected position: %f, %f", st.Lat, st.Lng)
	}
	if st.Detailed() {
		t.Error("new station must not be detailed")
	}
	if st.Status() != domain.StatusUnknown {
		t.Errorf("expected unknown status, got %s", st.Status())
	}
	if st.PaymentTerminal() != domain.PaymentUnknown {
		t.Errorf("expected unknown payment, got %s", st.PaymentTerminal())
	}
	if _, ok := st.BikesAvailable(); ok {
		t.Error("bikes must be absent before detail load")
	}
	if _, ok := st.LastUpdateEpoch(); ok {
		t.Error("last update must be absent before detail load")
	}
}

func TestNewStation_StrictParsing(t *testing.T) {
	tests := []struct {
		name  string
		rec   domain.MarkerRecord
		field string
	}{
		{"Bad_ID", domain.MarkerRecord{ID: "abc", Lat: "50.1", Lng: "3.1"}, "id"},
		{"Empty_ID", domain.MarkerRecord{ID: "", Lat: "50.1", Lng: "3.1"}, "id"},
		{"Bad_Lat", domain.MarkerRecord{ID: "1", Lat: "north", Lng: "3.1"}, "lat"},
		{"Bad_Lng", domain.MarkerRecord{ID: "1", Lat: "50.1", Lng: ""}, "lng"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewStation(tt.rec)
			var perr *domain.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if perr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, perr.Field)
			}
		})
	}
}

func TestNewStation_TrimsNumbers(t *testing.T) {
	st, err := domain.NewStation(domain.MarkerRecord{ID: " 10 ", Name: "Rihour", Lat: "50.6359\n", Lng: " 3.06247"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.ID != 10 || st.Lat != 50.6359 || st.Lng != 3.06247 {
		t.Errorf("unexpected station: %+v", st)
	}
}

func TestApplyDetail(t *testing.T) {
	st := &domain.Station{ID: 1, Name: "Lille Metropole"}
	err := st.ApplyDetail(domain.DetailRecord{
		Address:    "LMCU RUE DU BALLON ",
		Bikes:      "6",
		Attachs:    "30",
		LastUpdate: "2 secondes",
		Status:     "0",
		Payment:    "AVEC_TPE",
	}, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	addr, _ := st.Address()
	if addr != "LMCU RUE DU BALLON " {
		t.Errorf("address must be kept verbatim, got %q", addr)
	}
	if bikes, _ := st.BikesAvailable(); bikes != 6 {
		t.Errorf("expected 6 bikes, got %d", bikes)
	}
	if docks, _ := st.DocksAvailable(); docks != 30 {
		t.Errorf("expected 30 docks, got %d", docks)
	}
	if st.Status() != domain.StatusWorking {
		t.Errorf("expected working, got %s", st.Status())
	}
	if st.PaymentTerminal() != domain.PaymentAvailable {
		t.Errorf("expected available, got %s", st.PaymentTerminal())
	}
	if last, _ := st.LastUpdateEpoch(); last != fixedNow.Unix()-2 {
		t.Errorf("expected now-2, got %d", last)
	}
	if !st.Live.FetchedAt.Equal(fixedNow) {
		t.Errorf("expected fetched at %s, got %s", fixedNow, st.Live.FetchedAt)
	}
}

func TestApplyDetail_StatusMapping(t *testing.T) {
	tests := []struct {
		code string
		want domain.StationStatus
	}{
		{"0", domain.StatusWorking},
		{" 0 ", domain.StatusWorking},
		{"1", domain.StatusNotWorking},
		{"-1", domain.StatusNotWorking},
		{"", domain.StatusNotWorking},
		{"ok", domain.StatusNotWorking},
	}

	for _, tt := range tests {
		st := &domain.Station{ID: 1}
		if err := st.ApplyDetail(domain.DetailRecord{Bikes: "0", Attachs: "0", Status: tt.code}, fixedNow); err != nil {
			t.Fatalf("code %q: unexpected error: %v", tt.code, err)
		}
		if st.Status() != tt.want {
			t.Errorf("code %q: expected %s, got %s", tt.code, tt.want, st.Status())
		}
	}
}

func TestApplyDetail_PaymentMapping(t *testing.T) {
	tests := []struct {
		text string
		want domain.PaymentTerminal
	}{
		{"AVEC_TPE", domain.PaymentAvailable},
		{"SANS_TPE", domain.PaymentUnavailable},
		{"avec_tpe", domain.PaymentUnavailable},
		{" AVEC_TPE", domain.PaymentUnavailable},
		{"", domain.PaymentUnavailable},
	}

	for _, tt := range tests {
		st := &domain.Station{ID: 1}
		if err := st.ApplyDetail(domain.DetailRecord{Bikes: "0", Attachs: "0", Payment: tt.text}, fixedNow); err != nil {
			t.Fatalf("payment %q: unexpected error: %v", tt.text, err)
		}
		if st.PaymentTerminal() != tt.want {
			t.Errorf("payment %q: expected %s, got %s", tt.text, tt.want, st.PaymentTerminal())
		}
	}
}

func TestApplyDetail_LastUpdate(t *testing.T) {
	st := &domain.Station{ID: 10}
	rec := domain.DetailRecord{Bikes: "12", Attachs: "20", LastUpdate: "6 heure(s) 4 minute(s) 2 secondes"}
	if err := st.ApplyDetail(rec, fixedNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last, _ := st.LastUpdateEpoch(); last != fixedNow.Unix()-(6*3600+4*60+2) {
		t.Errorf("unexpected last update %d", last)
	}

	rec.LastUpdate = ""
	if err := st.ApplyDetail(rec, fixedNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last, _ := st.LastUpdateEpoch(); last != domain.UnknownLastUpdate {
		t.Errorf("expected -1 sentinel, got %d", last)
	}
}

func TestApplyDetail_BadCountKeepsPrevious(t *testing.T) {
	st := &domain.Station{ID: 1}
	if err := st.ApplyDetail(domain.DetailRecord{Bikes: "3", Attachs: "4", Status: "0"}, fixedNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	previous := st.Live

	err := st.ApplyDetail(domain.DetailRecord{Bikes: "many", Attachs: "4"}, fixedNow)
	var perr *domain.ParseError
	if !errors.As(err, &perr) || perr.Field != "bikes" {
		t.Fatalf("expected ParseError on bikes, got %v", err)
	}
	if st.Live != previous {
		t.Error("failed parse must not replace the live status")
	}

	err = st.ApplyDetail(domain.DetailRecord{Bikes: "1", Attachs: "-2"}, fixedNow)
	if !errors.Is(err, domain.ErrNegativeCount) {
		t.Errorf("expected ErrNegativeCount, got %v", err)
	}
}

func TestApplyDetail_ReplacesWholesale(t *testing.T) {
	st := &domain.Station{ID: 1}
	_ = st.ApplyDetail(domain.DetailRecord{Address: "A", Bikes: "3", Attachs: "4", Status: "0", Payment: "AVEC_TPE", LastUpdate: "1 secondes"}, fixedNow)
	_ = st.ApplyDetail(domain.DetailRecord{Bikes: "0", Attachs: "7", Status: "2"}, fixedNow.Add(time.Minute))

	if addr, _ := st.Address(); addr != "" {
		t.Errorf("expected empty address after overwrite, got %q", addr)
	}
	if st.PaymentTerminal() != domain.PaymentUnavailable {
		t.Errorf("expected unavailable after overwrite, got %s", st.PaymentTerminal())
	}
	if st.Status() != domain.StatusNotWorking {
		t.Errorf("expected not_working after overwrite, got %s", st.Status())
	}
}

func TestClone_Detached(t *testing.T) {
	st := &domain.Station{ID: 10, Name: "Rihour"}
	if c := st.Clone(); c == st || c.Live != nil || c.Name != "Rihour" {
		t.Fatalf("unexpected clone of undetailed station: %+v", c)
	}

	_ = st.ApplyDetail(domain.DetailRecord{Bikes: "3", Attachs: "4", Status: "0"}, fixedNow)
	c := st.Clone()
	if c.Live == st.Live {
		t.Fatal("expected clone to own its live status")
	}

	_ = st.ApplyDetail(domain.DetailRecord{Bikes: "9", Attachs: "1", Status: "1"}, fixedNow)
	if bikes, _ := c.BikesAvailable(); bikes != 3 {
		t.Errorf("expected clone to keep 3 bikes, got %d", bikes)
	}
	c.Live.DocksAvailable = 0
	if docks, _ := st.DocksAvailable(); docks != 1 {
		t.Errorf("expected original to keep 1 dock, got %d", docks)
	}
}

func TestStationListCenter(t *testing.T) {
	l := domain.StationList{CenterLat: "50.675", CenterLng: "3.1", ZoomLevel: "12"}
	c, err := l.Center()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Lat != 50.675 || c.Lng != 3.1 || c.ZoomLevel != 12 {
		t.Errorf("unexpected center %+v", c)
	}

	l.ZoomLevel = "near"
	if _, err := l.Center(); err == nil {
		t.Error("expected error for non-numeric zoom level")
	}
}

func TestErrorMessages(t *testing.T) {
	fe := &domain.FetchError{Endpoint: "/stations/xml-station.aspx", StationID: 3, StatusCode: 503}
	if fe.Error() != "fetch /stations/xml-station.aspx (borne=3): HTTP 503" {
		t.Errorf("unexpected message %q", fe.Error())
	}

	cause := errors.New("connection refused")
	fe = &domain.FetchError{Endpoint: "/stations/xml-stations.aspx", Err: cause}
	if !errors.Is(fe, cause) {
		t.Error("FetchError must unwrap to its cause")
	}

	pe := &domain.ParseError{Field: "id", Value: "x", Err: cause}
	if !errors.Is(pe, cause) {
		t.Error("ParseError must unwrap to its cause")
	}
}
