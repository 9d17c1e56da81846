// Package oauth manages the OAuth2 credential lifecycle for the Strava API:
// an in-memory access/refresh token pair that is refreshed proactively
// before expiry via the refresh-token grant.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultTokenURL is the Strava OAuth token endpoint.
const DefaultTokenURL = "https://www.strava.com/oauth/token"

// expiryBuffer guards against clock skew and in-flight request latency:
// a token expiring within this window is refreshed before use.
const expiryBuffer = 5 * time.Minute

// Token represents the OAuth token fields we care about
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// TokenSource returns a valid token.
// It is safe for concurrent use by multiple goroutines.
type TokenSource interface {
	Token(context.Context) (*Token, error)
}

// AuthError reports a failed refresh-token exchange.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// MemoryTokenSource holds the credential in memory, seeded with an initial
// refresh token, and refreshes it through the token endpoint when it is
// expired or about to expire. The zero access token at startup counts as
// expired, so the first call always performs a refresh.
type MemoryTokenSource struct {
	clientID     string
	clientSecret string
	tokenURL     string
	client       *http.Client
	logger       *slog.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiry       time.Time
}

// NewMemoryTokenSource creates a token source seeded with initialRefreshToken.
func NewMemoryTokenSource(clientID, clientSecret, initialRefreshToken string, logger *slog.Logger) *MemoryTokenSource {
	return &MemoryTokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     DefaultTokenURL,
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logger.With("component", "oauth"),
		refreshToken: initialRefreshToken,
	}
}

// SetTokenURL overrides the token endpoint. Used by tests.
func (s *MemoryTokenSource) SetTokenURL(u string) {
	s.tokenURL = u
}

// Token returns a valid token, refreshing it first if it expires within the
// safety buffer. The whole check-then-refresh path runs under the lock so a
// concurrent caller never observes a partially updated credential and at
// most one refresh exchange is in flight at a time.
func (s *MemoryTokenSource) Token(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Until(s.expiry) < expiryBuffer {
		if err := s.refreshLocked(ctx); err != nil {
			return nil, &AuthError{Err: err}
		}
	}

	return &Token{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		Expiry:       s.expiry,
	}, nil
}

// refreshLocked performs the refresh-token grant exchange and replaces the
// stored credential. Caller must hold s.mu.
func (s *MemoryTokenSource) refreshLocked(ctx context.Context) error {
	data := url.Values{}
	data.Set("client_id", s.clientID)
	data.Set("client_secret", s.clientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", s.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refresh failed with status: %d", resp.StatusCode)
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		ExpiresAt    int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}

	if result.AccessToken == "" {
		return fmt.Errorf("refresh response missing access_token")
	}

	newExpiry := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	if result.ExpiresAt != 0 {
		newExpiry = time.Unix(result.ExpiresAt, 0)
	}

	s.accessToken = result.AccessToken
	s.expiry = newExpiry
	// The provider may rotate the refresh token; an empty response value
	// keeps the one we already hold.
	if result.RefreshToken != "" {
		s.refreshToken = result.RefreshToken
	}

	s.logger.Info("Access token refreshed", "expires_at", newExpiry.Unix())
	return nil
}
