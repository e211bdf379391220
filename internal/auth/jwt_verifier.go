package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"sharedrive/internal/domain"
	"sharedrive/internal/domain/models"
)

// Auth0Config names the tenant and API whose access tokens are accepted.
type Auth0Config struct {
	Issuer   string // https://<domain>/
	Audience string
	JWKSURL  string
}

// Auth0JWTVerifier implements JWTVerifier against an Auth0 tenant's JWKS.
type Auth0JWTVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier fetches the tenant's key set. keyfunc caches the keys and
// refreshes them in the background until Close.
func NewJWTVerifier(cfg Auth0Config, logger *slog.Logger) (*Auth0JWTVerifier, error) {
	if cfg.JWKSURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", cfg.JWKSURL, "issuer", cfg.Issuer)

	v := newJWTVerifier(jwks.Keyfunc, cfg, logger)
	v.cancel = cancel
	return v, nil
}

func newJWTVerifier(kf jwt.Keyfunc, cfg Auth0Config, logger *slog.Logger) *Auth0JWTVerifier {
	// RS256 only: Auth0 signs access tokens with the tenant's RSA key
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &Auth0JWTVerifier{
		keyfunc: kf,
		parser:  jwt.NewParser(opts...),
		cancel:  func() {},
		logger:  logger,
	}
}

// VerifyToken validates signature, issuer, audience and expiry and returns the claims.
func (v *Auth0JWTVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyfunc)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	if claims.GetUserID() == "" {
		v.logger.Debug("token missing subject claim")
		return nil, fmt.Errorf("token has no subject: %w", domain.ErrUnauthorized)
	}

	return claims, nil
}

// Close stops the background key refresh.
func (v *Auth0JWTVerifier) Close() error {
	v.cancel()
	v.logger.Info("JWT verifier closed")
	return nil
}

var _ JWTVerifier = (*Auth0JWTVerifier)(nil)
