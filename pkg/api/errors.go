package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// ErrDataNotLoaded is returned by Health when the backend answers but does
// not report data_loaded=true.
var ErrDataNotLoaded = errors.New("backend data not loaded properly")

// RequestError is the single error type surfaced by the client. Message is
// meant to be shown to the user as is.
type RequestError struct {
	URL     string
	Status  int  // HTTP status when the server answered, 0 otherwise
	Timeout bool // the final attempt hit the per-attempt deadline
	Message string
	Err     error
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could succeed. A reachable
// server that answered with an error status is not retried.
func (e *RequestError) Retryable() bool {
	return e.Status == 0
}

// IsTimeout reports whether err is a RequestError caused by a timeout.
func IsTimeout(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Timeout
}

// errorBody is the optional JSON shape of error responses.
type errorBody struct {
	Detail string `json:"detail"`
}

func statusMessage(code int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && strings.TrimSpace(eb.Detail) != "" {
		return eb.Detail
	}
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}
