package auth

import "sharedrive/internal/domain/models"

// JWTVerifier verifies access tokens issued by the identity provider.
type JWTVerifier interface {
	// VerifyToken validates a token string and returns its claims.
	// Any failure matches domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases the key set refresh resources.
	Close() error
}
