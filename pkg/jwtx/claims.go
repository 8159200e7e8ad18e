package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTokenTTL is the lifetime of an access token. Access tokens
	// are verified statelessly and can't be revoked, so keep this short.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the lifetime of a refresh token. Every
	// rotation resets the window to the full TTL.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Claims are the access-token claims. On the wire this is
// {sub, username, exp} plus iat/nbf/jti/iss (and aud when configured).
type Claims struct {
	jwt.RegisteredClaims

	// Username is the display name of the authenticated user, copied from
	// the identity provider at login.
	Username string `json:"username,omitempty"`
}

// NewAccessClaims builds claims for a user valid from now for ttl.
func NewAccessClaims(
	subject, username string,
	issuer string,
	audience []string,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Username: username,
	}
}

// NewJTI returns 128 random bits, base64url encoded, so two tokens minted
// for one user in the same second still differ.
func NewJTI() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// ValidateIssuer is a no-op when expected is empty.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience passes when expected is empty or shares a value with aud.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 || slices.ContainsFunc(expected, func(a string) bool {
		return slices.Contains(c.Audience, a)
	}) {
		return nil
	}
	return ErrAudience
}

// ValidateExpiry checks exp and nbf against the wall clock, without leeway.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryAt(time.Now().UTC(), 0)
}

// ValidateExpiryAt checks exp and nbf against now, allowing leeway of skew
// in either direction. A token without exp is treated as expired.
func (c *Claims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	switch {
	case c.ExpiresAt == nil || now.After(c.ExpiresAt.Add(leeway)):
		return ErrExpired
	case c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)):
		return ErrNotYetValid
	}
	return nil
}
