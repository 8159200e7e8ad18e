package service

import "errors"

var (
	// Handshake.
	ErrMissingCode          = errors.New("missing_code")
	ErrInvalidState         = errors.New("invalid_state")
	ErrEmailNotVerified     = errors.New("email_not_verified")
	ErrAuthenticationFailed = errors.New("authentication_failed")

	// ErrConfiguration marks a server-side setup problem such as a missing
	// signing key. It must never be reported to clients as a bad credential.
	ErrConfiguration = errors.New("configuration_error")

	// Sessions.
	ErrMissingRefreshToken = errors.New("missing_refresh_token")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
	ErrRefreshTokenExpired = errors.New("refresh_token_expired")
	ErrUserNotFound        = errors.New("user_not_found")

	// Resources.
	ErrInvalidCursor            = errors.New("invalid_cursor")
	ErrBountyNotFound           = errors.New("bounty_not_found")
	ErrApplicationNotFound      = errors.New("application_not_found")
	ErrSubmissionNotFound       = errors.New("submission_not_found")
	ErrExtensionRequestNotFound = errors.New("extension_request_not_found")
)

// ValidationError is a client input problem whose message is safe to show.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }
