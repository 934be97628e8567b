package model

import "time"

// Session origin tags stored on refresh_sessions.token_type.
const (
	SessionTypeLocal = "local"
	SessionTypeOIDC  = "oidc"
)

type AuthRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type AuthConfigResponse struct {
	AllowSignup bool `json:"allowSignup"`
	OIDCEnabled bool `json:"oidcEnabled"`
}

// AuthUser is the identity resolved from a verified access token.
type AuthUser struct {
	ID      int64
	LoginID string
}

type User struct {
	ID           int64
	LoginID      string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshSession is one row of refresh_sessions. SessionID is the opaque
// cookie value and the unique lookup key; it stays stable across rotations.
// TokenHash is replaced in place on every rotation.
type RefreshSession struct {
	SessionID string
	UserID    int64
	TokenHash string
	TokenType string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
