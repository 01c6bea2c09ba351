package vlillefeed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/vlille/internal/adapters/vlillefeed"
	"github.com/samirrijal/vlille/internal/core/domain"
)

const stationsXML = `<?xml version="1.0" encoding="utf-16"?>
<markers center_lat="50.675" center_lng="3.1" zoom_level="12">
  <marker id="1" name="Lille Metropole" lat="50.6419" lng="3.07599" />
  <marker id="10" name="Rihour" lat="50.6359" lng="3.06247" />
</markers>`

const stationRihourXML = `<?xml version="1.0" encoding="utf-16"?>
<station>
  <adress>ANGLE PLACE RIHOUR RUE JEAN ROISIN </adress>
  <status>0</status>
  <bikes>12</bikes>
  <attachs>20</attachs>
  <paiement>SANS_TPE</paiement>
  <lastupd>6 heure(s) 4 minute(s) 2 secondes</lastupd>
</station>`

type recorded struct {
	method string
	path   string
	query  string
	accept string
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.calls...)
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.calls = append(rec.calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			accept: r.Header.Get("Accept"),
		})
		rec.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func feedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml")
	switch r.URL.Path {
	case "/stations/xml-stations.aspx":
		_, _ = w.Write([]byte(stationsXML))
	case "/stations/xml-station.aspx":
		if r.URL.Query().Get("borne") != "10" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(stationRihourXML))
	default:
		http.NotFound(w, r)
	}
}

func TestClient_ListStations(t *testing.T) {
	srv, calls := newServer(t, feedHandler)
	c := vlillefeed.New(srv.URL, srv.Client(), 5*time.Second)

	list, err := c.ListStations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if list.CenterLat != "50.675" || list.CenterLng != "3.1" || list.ZoomLevel != "12" {
		t.Errorf("center = %s/%s/%s", list.CenterLat, list.CenterLng, list.ZoomLevel)
	}
	if len(list.Markers) != 2 {
		t.Fatalf("markers = %d, want 2", len(list.Markers))
	}
	want := domain.MarkerRecord{ID: "10", Name: "Rihour", Lat: "50.6359", Lng: "3.06247"}
	if list.Markers[1] != want {
		t.Errorf("marker = %+v, want %+v", list.Markers[1], want)
	}

	all := calls.all()
	if len(all) != 1 {
		t.Fatalf("calls = %d, want 1", len(all))
	}
	got := all[0]
	if got.method != http.MethodPost {
		t.Errorf("method = %s, want POST", got.method)
	}
	if got.query != "" {
		t.Errorf("station list must not send parameters, got %q", got.query)
	}
	if got.accept != "application/xml" {
		t.Errorf("accept = %q", got.accept)
	}
}

func TestClient_StationDetail(t *testing.T) {
	srv, calls := newServer(t, feedHandler)
	c := vlillefeed.New(srv.URL, srv.Client(), 5*time.Second)

	rec, err := c.StationDetail(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.DetailRecord{
		Address:    "ANGLE PLACE RIHOUR RUE JEAN ROISIN ",
		Bikes:      "12",
		Attachs:    "20",
		LastUpdate: "6 heure(s) 4 minute(s) 2 secondes",
		Status:     "0",
		Payment:    "SANS_TPE",
	}
	if *rec != want {
		t.Errorf("detail = %+v, want %+v", *rec, want)
	}

	got := calls.all()[0]
	if got.method != http.MethodPost || got.path != "/stations/xml-station.aspx" {
		t.Errorf("request = %s %s", got.method, got.path)
	}
	if got.query != "borne=10" {
		t.Errorf("query = %q, want borne=10", got.query)
	}
}

func TestClient_HTTPError(t *testing.T) {
	srv, _ := newServer(t, feedHandler)
	c := vlillefeed.New(srv.URL, srv.Client(), 5*time.Second)

	_, err := c.StationDetail(context.Background(), 99)

	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T: %v", err, err)
	}
	if fe.StatusCode != http.StatusNotFound || fe.StationID != 99 || fe.Endpoint != vlillefeed.EndpointStation {
		t.Errorf("fetch error = %+v", fe)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c := vlillefeed.New(srv.URL, srv.Client(), 5*time.Second)

	_, err := c.ListStations(context.Background())
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 FetchError, got %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := vlillefeed.New(url, nil, time.Second)
	_, err := c.ListStations(context.Background())

	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != 0 || fe.Err == nil {
		t.Errorf("transport failure = %+v", fe)
	}
}

func TestClient_MalformedXML(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<markers center_lat="50"><marker`))
	})
	c := vlillefeed.New(srv.URL, srv.Client(), 5*time.Second)

	_, err := c.ListStations(context.Background())
	var pe *domain.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
}

func TestClient_WrongRootElement(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>maintenance</body></html>`))
	})
	c := vlillefeed.New(srv.URL, srv.Client(), 5*time.Second)

	_, err := c.StationDetail(context.Background(), 1)
	var pe *domain.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestClient_MissingElementsDecodeEmpty(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<station><bikes>3</bikes></station>`))
	})
	c := vlillefeed.New(srv.URL, srv.Client(), 5*time.Second)

	rec, err := c.StationDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Bikes != "3" || rec.Attachs != "" || rec.Address != "" {
		t.Errorf("detail = %+v", rec)
	}
}

func TestClient_Latin1UnderUTF16Label(t *testing.T) {
	// "Hôtel" with ô as a single Windows-1252 byte.
	body := []byte("<?xml version=\"1.0\" encoding=\"utf-16\"?>\n" +
		"<markers center_lat=\"50\" center_lng=\"3\" zoom_level=\"12\">" +
		"<marker id=\"5\" name=\"H\xf4tel de ville\" lat=\"50.63\" lng=\"3.07\"/></markers>")

	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})
	c := vlillefeed.New(srv.URL, srv.Client(), 5*time.Second)

	list, err := c.ListStations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := list.Markers[0].Name; got != "Hôtel de ville" {
		t.Errorf("name = %q, want %q", got, "Hôtel de ville")
	}
}

func TestClient_ISO88591Label(t *testing.T) {
	body := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<station><adress>Pr\xe9fecture</adress><bikes>1</bikes></station>")

	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})
	c := vlillefeed.New(srv.URL, srv.Client(), 5*time.Second)

	rec, err := c.StationDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Address != "Préfecture" {
		t.Errorf("address = %q", rec.Address)
	}
}
