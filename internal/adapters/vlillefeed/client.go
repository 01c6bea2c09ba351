package vlillefeed

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	resty "gopkg.in/resty.v1"

	"github.com/samirrijal/vlille/internal/core/domain"
	"github.com/samirrijal/vlille/internal/pkg/metrics"
	"github.com/samirrijal/vlille/internal/pkg/telemetry"
)

// DefaultBaseURL is the public V'Lille site.
const DefaultBaseURL = "http://www.vlille.fr"

const (
	stationsPath = "/stations/xml-stations.aspx"
	stationPath  = "/stations/xml-station.aspx"

	// Endpoint labels used in errors, metrics and spans.
	EndpointStations = "stations"
	EndpointStation  = "station"

	stationParam = "borne"
)

// Client implements ports.StationFeed over the V'Lille XML endpoints.
type Client struct {
	rc *resty.Client
}

// New creates a Client for baseURL using hc as transport. A nil hc gets a
// plain http.Client with the given timeout.
func New(baseURL string, hc *http.Client, timeout time.Duration) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	rc := resty.NewWithClient(hc).
		SetHostURL(baseURL).
		SetHeader("Accept", "application/xml")
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}

	return &Client{rc: rc}
}

// ListStations fetches the station list and map position.
func (c *Client) ListStations(ctx context.Context) (*domain.StationList, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "vlillefeed.ListStations",
		trace.WithAttributes(attribute.String(telemetry.AttrEndpoint, EndpointStations)))
	defer span.End()

	body, err := c.post(ctx, span, EndpointStations, stationsPath, 0)
	if err != nil {
		return nil, err
	}

	list, err := decodeStationList(body)
	if err != nil {
		return nil, c.parseFailed(span, EndpointStations, err)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrStations, len(list.Markers)))
	return list, nil
}

// StationDetail fetches the live status of one station.
func (c *Client) StationDetail(ctx context.Context, stationID int) (*domain.DetailRecord, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "vlillefeed.StationDetail",
		trace.WithAttributes(
			attribute.String(telemetry.AttrEndpoint, EndpointStation),
			attribute.Int(telemetry.AttrStationID, stationID),
		))
	defer span.End()

	body, err := c.post(ctx, span, EndpointStation, stationPath, stationID)
	if err != nil {
		return nil, err
	}

	rec, err := decodeStationDetail(body)
	if err != nil {
		return nil, c.parseFailed(span, EndpointStation, err)
	}
	return rec, nil
}

// post sends one request; stationID 0 means no borne parameter.
func (c *Client) post(ctx context.Context, span trace.Span, endpoint, path string, stationID int) ([]byte, error) {
	req := c.rc.R().SetContext(ctx)
	if stationID != 0 {
		req.SetQueryParam(stationParam, strconv.Itoa(stationID))
	}

	start := time.Now()
	resp, err := req.Post(path)
	metrics.FeedRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.FeedRequests.WithLabelValues(endpoint, metrics.OutcomeError).Inc()
		ferr := &domain.FetchError{Endpoint: endpoint, StationID: stationID, Err: err}
		span.RecordError(ferr)
		span.SetStatus(codes.Error, ferr.Error())
		return nil, ferr
	}

	span.SetAttributes(attribute.Int(telemetry.AttrStatusCode, resp.StatusCode()))
	if !resp.IsSuccess() {
		metrics.FeedRequests.WithLabelValues(endpoint, metrics.OutcomeError).Inc()
		ferr := &domain.FetchError{
			Endpoint:   endpoint,
			StationID:  stationID,
			StatusCode: resp.StatusCode(),
			Err:        errUnexpectedStatus,
		}
		span.SetStatus(codes.Error, ferr.Error())
		return nil, ferr
	}

	metrics.FeedRequests.WithLabelValues(endpoint, metrics.OutcomeSuccess).Inc()
	return resp.Body(), nil
}

func (c *Client) parseFailed(span trace.Span, endpoint string, err error) error {
	metrics.FeedParseFailures.WithLabelValues(endpoint).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
