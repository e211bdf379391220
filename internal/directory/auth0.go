// Package directory resolves email addresses to user subject ids.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"sharedrive/internal/domain"
	"sharedrive/internal/domain/services"
)

const dependency = "directory"

// Auth0Config configures access to the Auth0 Management API.
type Auth0Config struct {
	Domain       string // e.g. "tenant.eu.auth0.com"
	ClientID     string
	ClientSecret string
}

// Auth0Directory looks users up through the Auth0 Management API.
// Tokens are obtained with the client credentials grant and cached by the
// oauth2 transport until they expire.
type Auth0Directory struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAuth0Directory creates a new Auth0 directory client.
func NewAuth0Directory(cfg Auth0Config, logger *slog.Logger) *Auth0Directory {
	baseURL := "https://" + strings.TrimSuffix(strings.TrimPrefix(cfg.Domain, "https://"), "/")

	cc := &clientcredentials.Config{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		TokenURL:       baseURL + "/oauth/token",
		EndpointParams: url.Values{"audience": {baseURL + "/api/v2/"}},
	}

	base := &http.Client{Timeout: 30 * time.Second}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = 30 * time.Second

	return newAuth0Directory(baseURL, client, logger)
}

func newAuth0Directory(baseURL string, client *http.Client, logger *slog.Logger) *Auth0Directory {
	return &Auth0Directory{baseURL: baseURL, httpClient: client, logger: logger}
}

type auth0User struct {
	UserID string `json:"user_id"`
}

// LookupUserIDByEmail returns the user id of the account registered with email.
func (d *Auth0Directory) LookupUserIDByEmail(ctx context.Context, email string) (string, error) {
	q := url.Values{}
	q.Set("email", strings.ToLower(email))
	q.Set("fields", "user_id")
	endpoint := d.baseURL + "/api/v2/users-by-email?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", domain.Upstream(dependency, fmt.Errorf("create lookup request: %w", err))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Error("directory lookup failed", "error", err)
		return "", domain.Upstream(dependency, fmt.Errorf("lookup user: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		d.logger.Error("directory lookup failed", "status", resp.StatusCode, "body", string(body))
		return "", domain.Upstream(dependency, fmt.Errorf("lookup user failed with status %d", resp.StatusCode))
	}

	var users []auth0User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return "", domain.Upstream(dependency, fmt.Errorf("decode lookup response: %w", err))
	}
	if len(users) == 0 || users[0].UserID == "" {
		return "", domain.ErrUserNotFound
	}
	if len(users) > 1 {
		d.logger.Warn("several accounts share an email, using the first", "count", len(users))
	}
	return users[0].UserID, nil
}

var _ services.UserDirectory = (*Auth0Directory)(nil)
