package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/pkg/httpx"
	"github.com/devasign/devasign/pkg/slogx"
)

var (
	errMissingCode         = httpx.BadRequest("Authorization code missing")
	errInvalidState        = httpx.BadRequest("Invalid state")
	errEmailNotVerified    = httpx.BadRequest("Provider account must have a verified email")
	errAuthFailed          = httpx.NewError(httpx.KindUpstream, "Authentication failed")
	errUnknownProvider     = httpx.NotFound("Unknown provider")
	errMissingRefreshToken = httpx.BadRequest("Refresh token is required")
	errInvalidRefreshToken = httpx.Unauthorized("Invalid refresh token")
	errRefreshTokenExpired = httpx.Unauthorized("Refresh token has expired")
	errUserNotFound        = httpx.Unauthorized("User not found")
	errInvalidCursor       = httpx.BadRequest("Invalid cursor")

	errBountyNotFound           = httpx.NotFound("Bounty not found")
	errApplicationNotFound      = httpx.NotFound("Application not found")
	errSubmissionNotFound       = httpx.NotFound("Submission not found")
	errExtensionRequestNotFound = httpx.NotFound("Extension request not found")
)

// writeServiceError maps a service error to its client-safe response. The
// full cause is logged for anything that ends up as a 5xx.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.WriteError(w, httpx.BadRequest(ve.Message))

	case errors.Is(err, service.ErrMissingCode):
		httpx.WriteError(w, errMissingCode)
	case errors.Is(err, service.ErrInvalidState):
		httpx.WriteError(w, errInvalidState)
	case errors.Is(err, service.ErrEmailNotVerified):
		httpx.WriteError(w, errEmailNotVerified)
	case errors.Is(err, service.ErrAuthenticationFailed):
		httpx.WriteError(w, errAuthFailed)

	case errors.Is(err, service.ErrMissingRefreshToken):
		httpx.WriteError(w, errMissingRefreshToken)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		httpx.WriteError(w, errInvalidRefreshToken)
	case errors.Is(err, service.ErrRefreshTokenExpired):
		httpx.WriteError(w, errRefreshTokenExpired)
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, errUserNotFound)

	case errors.Is(err, service.ErrInvalidCursor):
		httpx.WriteError(w, errInvalidCursor)
	case errors.Is(err, service.ErrBountyNotFound):
		httpx.WriteError(w, errBountyNotFound)
	case errors.Is(err, service.ErrApplicationNotFound):
		httpx.WriteError(w, errApplicationNotFound)
	case errors.Is(err, service.ErrSubmissionNotFound):
		httpx.WriteError(w, errSubmissionNotFound)
	case errors.Is(err, service.ErrExtensionRequestNotFound):
		httpx.WriteError(w, errExtensionRequestNotFound)

	case errors.Is(err, service.ErrConfiguration):
		log.Error("server misconfigured", slog.Any("error", err))
		httpx.WriteError(w, httpx.ErrConfiguration)

	default:
		log.Error("request failed", slog.Any("error", err))
		httpx.WriteError(w, httpx.ErrInternal)
	}
}

// callerID returns the authenticated user id. Routes using it are always
// wrapped in AuthnMiddleware, so a missing identity is a wiring bug.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, httpx.ErrUnauthorized)
		return "", false
	}
	return id.ID, true
}
