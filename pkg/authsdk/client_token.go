package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// StateCookieName is the cookie the API sets on the login redirect.
const StateCookieName = "oauth_state"

// LoginRedirect is the first leg of a provider login.
type LoginRedirect struct {
	// URL is the provider's authorize page. Send the user there.
	URL string

	// State is the nonce the API put in its state cookie and in URL.
	// It has to come back on the callback, as both query and cookie.
	State string
}

// BeginLogin starts a login with provider ("github") and returns where to
// send the user. Browsers do this on their own; the SDK exposes it for
// CLIs and tests that drive the handshake themselves.
func (c *SDKClient) BeginLogin(ctx context.Context, provider string) (*LoginRedirect, error) {
	resp, err := c.roundTrip(ctx, call{method: http.MethodGet, path: "/auth/" + url.PathEscape(provider)}, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		body, _ := io.ReadAll(resp.Body)
		return nil, parseErrorResponse(resp, body)
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == StateCookieName && ck.Value != "" {
			return &LoginRedirect{URL: resp.Header.Get("Location"), State: ck.Value}, nil
		}
	}
	return nil, fmt.Errorf("authsdk: login redirect did not set %s cookie", StateCookieName)
}

// CompleteLogin finishes the handshake with the code the provider handed
// back and returns an authenticated Session.
func (c *SDKClient) CompleteLogin(ctx context.Context, provider, code, state string) (*Session, error) {
	var login LoginResponse
	cb := get("/auth/"+url.PathEscape(provider)+"/callback", &login)
	cb.query = url.Values{"code": {code}, "state": {state}}
	cb.cookies = []*http.Cookie{{Name: StateCookieName, Value: state}}
	if err := c.send(ctx, cb); err != nil {
		return nil, err
	}

	user := login.User
	return newSession(c, TokenPair{Token: login.Token, RefreshToken: login.RefreshToken}, &user), nil
}

// Refresh spends refreshToken and returns the next pair. A refresh token
// works exactly once; a second attempt gets a 401.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	if err := c.send(ctx, tokenCall("/auth/refresh", refreshToken, &pair)); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout revokes refreshToken. Unknown or already revoked tokens succeed.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	return c.send(ctx, tokenCall("/auth/logout", refreshToken, &SuccessResponse{}))
}

func tokenCall(path, refreshToken string, out any) call {
	return call{
		method: http.MethodPost,
		path:   path,
		body:   RefreshTokenRequest{RefreshToken: refreshToken},
		want:   http.StatusOK,
		out:    out,
	}
}
