package authsdk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devasign/devasign/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
)

// Session represents an authenticated session with automatic token rotation.
// All Session methods swap the token pair via /auth/refresh when the access
// token is about to expire.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	user         *User
}

// newSession creates a session from a token pair. The expiry is read from
// the access token's exp claim; the signature is the server's business.
func newSession(client *SDKClient, pair TokenPair, user *User) *Session {
	s := &Session{client: client, user: user}
	s.setPair(pair)
	return s
}

// setPair must be called with mu held for writing, or before s is shared.
func (s *Session) setPair(pair TokenPair) {
	s.accessToken = pair.Token
	s.refreshToken = pair.RefreshToken
	s.expiresAt = accessTokenExpiry(pair.Token).Add(-s.client.RefreshSkew)
}

// accessTokenExpiry returns the exp of an access token, or the zero time
// when it cannot be read, which makes the session rotate on first use.
func accessTokenExpiry(token string) time.Time {
	var claims jwtx.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// getValidToken returns a valid access token, rotating the pair if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have rotated)
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	pair, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	s.setPair(*pair)

	return s.accessToken, nil
}

// Refresh rotates the token pair now, regardless of expiry.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return ErrNoRefreshToken
	}
	pair, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return err
	}
	s.setPair(*pair)
	return nil
}

// Logout revokes the session's refresh token. The access token stays
// valid until it expires; the session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if refreshToken == "" {
		return ErrNoRefreshToken
	}
	return s.client.Logout(ctx, refreshToken)
}

// AccessToken returns the current access token without checking expiration.
// For most use cases, prefer using the Session methods which handle refresh automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token. Persist it after every
// call that may have rotated it; the previous one no longer works.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns the account from the login response, if the session was
// created by CompleteLogin.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}
