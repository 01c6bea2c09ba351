package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStationNotFound is returned by lookups on an unknown station id.
	ErrStationNotFound = errors.New("station not found")

	// ErrNegativeCount rejects negative bike or dock counts.
	ErrNegativeCount = errors.New("negative count")
)

// FetchError is a transport-level failure talking to the feed:
// connection error or a non-success HTTP status.
type FetchError struct {
	Endpoint   string
	StationID  int // 0 for the station list
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	target := e.Endpoint
	if e.StationID != 0 {
		target = fmt.Sprintf("%s (borne=%d)", e.Endpoint, e.StationID)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", target, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", target, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means a feed payload did not have the expected shape.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse feed: %v", e.Err)
	}
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
