package models

import "github.com/golang-jwt/jwt/v5"

// Claims represents the JWT access token issued by the identity provider.
// The subject claim is the stable subject id used in relation tuples.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	Scope     string `json:"scope"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
