package domain

import "time"

// User is a marketplace account. It is created on the first successful
// handshake with the identity provider and refreshed on every later one.
type User struct {
	ID                string    `json:"id" db:"id"`
	ProviderID        string    `json:"-" db:"provider_id"` // stable provider account id, e.g. GitHub's numeric id
	Username          string    `json:"username" db:"username"`
	DisplayName       string    `json:"displayName,omitempty" db:"display_name"`
	Email             string    `json:"email" db:"email"`
	AvatarURL         string    `json:"avatarUrl" db:"avatar_url"`
	TotalEarned       float64   `json:"totalEarned" db:"total_earned"`
	BountiesCompleted int       `json:"bountiesCompleted" db:"bounties_completed"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile is what the identity provider tells us about a user.
type Profile struct {
	ProviderID    string
	Username      string
	DisplayName   string
	Email         string
	EmailVerified bool
	AvatarURL     string
}
