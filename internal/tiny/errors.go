package tiny

import (
	"errors"
	"fmt"
	"net/http"
)

// Transport-level failures, kept distinct so the tool layer can phrase
// them differently.
var (
	ErrRequestTimeout = errors.New("request to the Tiny API timed out")
	ErrNetwork        = errors.New("could not reach the Tiny API")
)

// APIError is a non-2xx response from the Tiny API. 401 never reaches the
// caller as an APIError; the pipeline converts it after its single retry.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("Tiny API error (%d %s): %s", e.StatusCode, e.Category(), e.Message)
	}
	return fmt.Sprintf("Tiny API error (%d %s)", e.StatusCode, e.Category())
}

// Category labels the status code for display. It does not affect retry
// behavior.
func (e *APIError) Category() string {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return "validation"
	case e.StatusCode == http.StatusForbidden:
		return "forbidden"
	case e.StatusCode == http.StatusNotFound:
		return "not found"
	case e.StatusCode == http.StatusTooManyRequests:
		return "rate limited"
	case e.StatusCode >= 500:
		return "server error"
	default:
		return "request failed"
	}
}
