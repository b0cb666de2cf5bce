package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError indicates the gateway answered with a non-2xx status
type APIError struct {
	Message    string
	HTTPStatus int
	RawBody    string
}

func (e APIError) Error() string {
	return e.Message
}

// NetworkError indicates no response was received (dial, TLS, timeout, body read)
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by an APIError anywhere in err's chain.
// Zero means err is not an APIError.
func StatusOf(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatus
	}
	return 0
}

// IsUnauthorized reports whether the gateway rejected the bearer token
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

func newAPIError(status int, body string) APIError {
	msg := fmt.Sprintf("API request failed: %d %s", status, http.StatusText(status))
	if body != "" {
		msg += " - " + body
	}
	return APIError{
		Message:    msg,
		HTTPStatus: status,
		RawBody:    body,
	}
}
