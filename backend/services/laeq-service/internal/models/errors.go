package models

import (
	"errors"
	"fmt"
)

var (
	ErrCellNotFound   = errors.New("no hex cell at location")
	ErrInvalidRequest = errors.New("invalid request")
	ErrAIDisabled     = errors.New("ai webhook not configured")
)

// UpstreamError reports a failed call to GeoServer, PostGIS or the AI webhook.
type UpstreamError struct {
	Service string
	Code    string
	Status  int
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Service, e.Code, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Code, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream failure codes.
const (
	CodeNotFound   = "NOT_FOUND"
	CodeTimeout    = "TIMEOUT"
	CodeConnection = "CONNECTION_ERROR"
	CodeAPI        = "API_ERROR"
	CodeDecode     = "DECODE_ERROR"
)
