package httpx

import (
	"net/http"
)

// Kind classifies an API error. The HTTP status follows from the kind.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindRateLimited    Kind = "rate_limited"
	KindConfiguration  Kind = "configuration"
	KindUpstream       Kind = "upstream"
	KindInternal       Kind = "internal"
)

// Status maps the kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a client-safe API error. Message is what the caller sees; the
// underlying cause is logged by whoever builds the Error, never sent.
type Error struct {
	Status  int
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError builds an Error with the status implied by kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Status: kind.Status(), Kind: kind, Message: message}
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid refresh token"`
}

// WriteError renders e as {"error": message}.
func WriteError(w http.ResponseWriter, e *Error) {
	WriteJSON(w, e.Status, ErrorResponse{Error: e.Message})
}

func BadRequest(message string) *Error   { return NewError(KindValidation, message) }
func Unauthorized(message string) *Error { return NewError(KindAuthentication, message) }
func Forbidden(message string) *Error    { return NewError(KindAuthorization, message) }
func NotFound(message string) *Error     { return NewError(KindNotFound, message) }

var (
	ErrMissingAuthHeader   = Unauthorized("Missing or invalid Authorization header")
	ErrInvalidToken        = Unauthorized("Invalid or expired token")
	ErrTokenExpired        = Unauthorized("Token has expired")
	ErrInvalidTokenPayload = Unauthorized("Invalid token payload")
	ErrUnauthorized        = Unauthorized("Unauthorized")
	ErrResourceIDMissing   = BadRequest("Resource ID missing")
	ErrInvalidBody         = BadRequest("Invalid request body")
	ErrTooManyRequests     = NewError(KindRateLimited, "Too many requests, please try again later")
	ErrConfiguration       = NewError(KindConfiguration, "Internal server configuration error")
	ErrInternal            = NewError(KindInternal, "Internal server error")
)
