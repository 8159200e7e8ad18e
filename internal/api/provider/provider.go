// Package provider talks to the external OAuth identity provider.
package provider

import (
	"context"
	"errors"

	"github.com/devasign/devasign/internal/api/domain"
)

// ErrNotConfigured means the provider's client credentials are missing.
var ErrNotConfigured = errors.New("provider: client credentials not configured")

// IdentityProvider is the part of an OAuth provider the handshake needs.
type IdentityProvider interface {
	// Name is the path segment the provider answers to, e.g. "github".
	Name() string

	// AuthCodeURL is where the browser is sent to log in, carrying state.
	AuthCodeURL(state string) string

	// FetchProfile exchanges the authorization code and loads the profile.
	FetchProfile(ctx context.Context, code string) (domain.Profile, error)
}
