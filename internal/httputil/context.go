package httputil

import (
	"context"
	"fmt"
	"net/http"

	"sharedrive/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

// WithUserID stores the authenticated subject id in the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// UserID returns the authenticated subject id, or domain.ErrUnauthorized
// when the request carries no session.
func UserID(r *http.Request) (string, error) {
	userID, _ := r.Context().Value(userIDKey).(string)
	if userID == "" {
		return "", fmt.Errorf("no session: %w", domain.ErrUnauthorized)
	}
	return userID, nil
}
