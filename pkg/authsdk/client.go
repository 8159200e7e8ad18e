package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the Devasign API.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// RefreshSkew is how long before the access token's exp the Session
	// rotates it. Default: 30 seconds.
	RefreshSkew time.Duration
}

// NewSDKClient creates a new API client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			// The login redirect carries the state cookie; callers want to
			// see it rather than follow it to the provider.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		RefreshSkew: 30 * time.Second,
	}
}

// NewSessionFromTokens creates an authenticated session from existing tokens,
// e.g. ones kept in a browser's storage or passed from another system.
// The session will still rotate the pair when the access token expires.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string) *Session {
	return newSession(c, TokenPair{Token: accessToken, RefreshToken: refreshToken}, nil)
}

// AuthenticateWithRefreshToken exchanges a stored refresh token for a fresh
// pair and wraps it in a Session. The passed token is spent afterwards.
func (c *SDKClient) AuthenticateWithRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	pair, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return newSession(c, *pair, nil), nil
}
