package domain

import "time"

// TokenPair is what a successful login or refresh hands back: the
// short-lived access token (JWT) and the opaque refresh token.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken models the stored refresh token record in the DB. The raw
// secret is never stored, only its fingerprint.
type RefreshToken struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"` // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Expired reports whether the token is past its expiry at now.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Session is the outcome of a completed OAuth handshake.
type Session struct {
	User User `json:"user"`
	TokenPair
}
