package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharedrive/internal/domain"
	"sharedrive/internal/domain/models"
	"sharedrive/internal/httputil"
)

type fakeVerifier struct {
	tokens map[string]string // token -> subject
	calls  int
}

func (f *fakeVerifier) VerifyToken(token string) (*models.Claims, error) {
	f.calls++
	sub, ok := f.tokens[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return &models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}, nil
}

func (f *fakeVerifier) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoUser writes the authenticated subject id
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.UserID(r)
	if err != nil {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Write([]byte(userID))
})

func TestAuthMiddleware(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]string{"good": "auth0|alice"}}
	h := AuthMiddleware(verifier, discardLogger())(echoUser)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "/api/session", "Bearer good", http.StatusOK, "auth0|alice"},
		{"lowercase scheme", "/api/session", "bearer good", http.StatusOK, "auth0|alice"},
		{"missing header", "/api/session", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/api/session", "Basic good", http.StatusUnauthorized, ""},
		{"empty token", "/api/session", "Bearer ", http.StatusUnauthorized, ""},
		{"rejected token", "/api/session", "Bearer bad", http.StatusUnauthorized, ""},
		{"health is public", "/health", "", http.StatusTeapot, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/x", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}
