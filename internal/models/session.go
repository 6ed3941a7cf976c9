package models

import "time"

// Session tracks one signed-in client. Sessions are kept in Redis with a
// TTL derived from ExpiresAt and referenced by the token's jti claim.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
