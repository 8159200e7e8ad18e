package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the API. Message is the server's
// client-safe "error" field, e.g. "Invalid refresh token".
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ErrNoRefreshToken is returned when a session needs to rotate but holds no
// refresh token.
var ErrNoRefreshToken = errors.New("authsdk: access token expired and no refresh token available")

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// IsUnauthorized reports whether err is a 401 from the API. For a Session
// this means the user has to log in again.
func IsUnauthorized(err error) bool { return IsStatus(err, http.StatusUnauthorized) }

// IsForbidden reports whether err is a 403 from an ownership check.
func IsForbidden(err error) bool { return IsStatus(err, http.StatusForbidden) }

// parseErrorResponse turns an error body into an *APIError, falling back to
// the status text when the body is not the usual {"error": "..."} shape.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
}
