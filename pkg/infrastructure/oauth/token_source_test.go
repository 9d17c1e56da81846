package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSource(tokenURL string) *MemoryTokenSource {
	s := NewMemoryTokenSource("client-id", "client-secret", "seed-refresh-token", discardLogger())
	s.SetTokenURL(tokenURL)
	return s
}

func TestToken_RefreshesOnFirstUse(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Expected form content type, got %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		fmt.Fprintf(w, `{"access_token":"new-access","refresh_token":"new-refresh","expires_in":21600,"expires_at":%d,"token_type":"Bearer"}`,
			time.Now().Add(6*time.Hour).Unix())
	}))
	defer srv.Close()

	s := newTestSource(srv.URL)
	tok, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}

	if tok.AccessToken != "new-access" {
		t.Errorf("Expected refreshed access token, got %q", tok.AccessToken)
	}
	if tok.RefreshToken != "new-refresh" {
		t.Errorf("Expected rotated refresh token, got %q", tok.RefreshToken)
	}
	for _, want := range []string{
		"client_id=client-id",
		"client_secret=client-secret",
		"grant_type=refresh_token",
		"refresh_token=seed-refresh-token",
	} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("Expected grant body to contain %q, got %q", want, gotBody)
		}
	}
}

func TestToken_CachedWhileValid(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprintf(w, `{"access_token":"access-%d","refresh_token":"r","expires_at":%d}`,
			calls.Load(), time.Now().Add(6*time.Hour).Unix())
	}))
	defer srv.Close()

	s := newTestSource(srv.URL)
	first, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("first Token() failed: %v", err)
	}
	second, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("second Token() failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("Expected exactly one refresh exchange, got %d", calls.Load())
	}
	if first.AccessToken != second.AccessToken {
		t.Errorf("Expected cached token on second call, got %q then %q", first.AccessToken, second.AccessToken)
	}
}

func TestToken_RefreshesInsideExpiryBuffer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		// First exchange hands back a token expiring within the 5-minute
		// buffer, which must trigger a second exchange on next use.
		expiry := time.Now().Add(time.Minute)
		if n > 1 {
			expiry = time.Now().Add(6 * time.Hour)
		}
		fmt.Fprintf(w, `{"access_token":"access-%d","refresh_token":"r","expires_at":%d}`, n, expiry.Unix())
	}))
	defer srv.Close()

	s := newTestSource(srv.URL)
	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("first Token() failed: %v", err)
	}
	tok, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("second Token() failed: %v", err)
	}

	if calls.Load() != 2 {
		t.Errorf("Expected two refresh exchanges, got %d", calls.Load())
	}
	if tok.AccessToken != "access-2" {
		t.Errorf("Expected second refreshed token, got %q", tok.AccessToken)
	}
}

func TestToken_EmptyRefreshTokenKeepsPrevious(t *testing.T) {
	var lastGrantBody string
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lastGrantBody = string(body)
		// Short expiry forces a refresh on every call; no rotated
		// refresh token in the response.
		fmt.Fprintf(w, `{"access_token":"a-%d","expires_at":%d}`, calls.Add(1), time.Now().Add(time.Minute).Unix())
	}))
	defer srv.Close()

	s := newTestSource(srv.URL)
	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("first Token() failed: %v", err)
	}
	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("second Token() failed: %v", err)
	}

	if !strings.Contains(lastGrantBody, "refresh_token=seed-refresh-token") {
		t.Errorf("Expected seed refresh token to be preserved, grant body: %q", lastGrantBody)
	}
}

func TestToken_RefreshFailureSurfacesAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	s := newTestSource(srv.URL)
	_, err := s.Token(context.Background())
	if err == nil {
		t.Fatal("Expected error for failed refresh")
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected *AuthError, got %T: %v", err, err)
	}
}

func TestTransport_SetsBearerHeader(t *testing.T) {
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"access_token":"bearer-me","refresh_token":"r","expires_at":%d}`, time.Now().Add(6*time.Hour).Unix())
	}))
	defer token.Close()

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("{}"))
	}))
	defer api.Close()

	client := NewHTTPClient(newTestSource(token.URL))
	resp, err := client.Get(api.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer bearer-me" {
		t.Errorf("Expected bearer header, got %q", gotAuth)
	}
}
