package forwarder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testCreds() Credentials {
	return Credentials{ClientID: "cid", ClientSecret: "csecret", Username: "user", Password: "pass"}
}

type tokenCall struct {
	grantType string
	username  string
	refresh   string
	clientID  string
	secret    string
}

func newAuthServer(t *testing.T, calls *[]tokenCall, expiresIn int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		id, secret, _ := r.BasicAuth()
		*calls = append(*calls, tokenCall{
			grantType: r.FormValue("grant_type"),
			username:  r.FormValue("username"),
			refresh:   r.FormValue("refresh_token"),
			clientID:  id,
			secret:    secret,
		})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "tok-" + r.FormValue("grant_type"),
			"token_type":    "Bearer",
			"expires_in":    expiresIn,
			"refresh_token": "refresh-1",
		})
	}))
}

func TestTokenPasswordGrantAndCache(t *testing.T) {
	var calls []tokenCall
	srv := newAuthServer(t, &calls, 3600)
	defer srv.Close()

	m := NewTokenManager(srv.URL, testCreds(), zerolog.Nop())
	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "tok-password" {
		t.Fatalf("got token %q", tok)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].grantType != "password" || calls[0].username != "user" {
		t.Fatalf("unexpected call %+v", calls[0])
	}
	if calls[0].clientID != "cid" || calls[0].secret != "csecret" {
		t.Fatalf("basic auth not sent: %+v", calls[0])
	}

	// Cached token is reused with no further calls
	tok2, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok2 != tok {
		t.Fatalf("cache miss: %q vs %q", tok2, tok)
	}
	if len(calls) != 1 {
		t.Fatalf("expected no extra calls, got %d", len(calls))
	}
}

func TestTokenRefreshesNearExpiry(t *testing.T) {
	var calls []tokenCall
	srv := newAuthServer(t, &calls, 3600)
	defer srv.Close()

	now := time.Now()
	m := NewTokenManager(srv.URL, testCreds(), zerolog.Nop())
	m.now = func() time.Time { return now }

	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}

	// Within 5 minutes of expiry the cached token is no longer acceptable
	now = now.Add(3600*time.Second - 4*time.Minute)
	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "tok-refresh_token" {
		t.Fatalf("expected refresh grant token, got %q", tok)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[1].grantType != "refresh_token" || calls[1].refresh != "refresh-1" {
		t.Fatalf("unexpected refresh call %+v", calls[1])
	}
}

func TestTokenRefreshFailureFallsBackToPassword(t *testing.T) {
	var grants []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gt := r.FormValue("grant_type")
		grants = append(grants, gt)
		if gt == "refresh_token" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + gt,
			"token_type":   "Bearer",
			"expires_in":   int64(3600),
		})
	}))
	defer srv.Close()

	m := NewTokenManager(srv.URL, testCreds(), zerolog.Nop())
	m.refresh = "stale-refresh"

	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "tok-password" {
		t.Fatalf("got %q", tok)
	}
	if len(grants) != 2 || grants[0] != "refresh_token" || grants[1] != "password" {
		t.Fatalf("unexpected grant sequence %v", grants)
	}
	if m.refresh != "" {
		t.Fatalf("stale refresh token should have been dropped")
	}
}

func TestTokenMissingCredentials(t *testing.T) {
	m := NewTokenManager("http://unused", Credentials{ClientID: "cid"}, zerolog.Nop())
	_, err := m.Token(context.Background())
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestTokenCredentialsTrimmed(t *testing.T) {
	var calls []tokenCall
	srv := newAuthServer(t, &calls, 3600)
	defer srv.Close()

	m := NewTokenManager(srv.URL, Credentials{
		ClientID:     "  cid  ",
		ClientSecret: "csecret\n",
		Username:     " user ",
		Password:     "pass ",
	}, zerolog.Nop())
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if calls[0].clientID != "cid" || calls[0].secret != "csecret" || calls[0].username != "user" {
		t.Fatalf("credentials not trimmed: %+v", calls[0])
	}
}

func TestTokenAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewTokenManager(srv.URL, testCreds(), zerolog.Nop())
	_, err := m.Token(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d", authErr.Status)
	}
}

func TestInvalidateForcesReauth(t *testing.T) {
	var calls []tokenCall
	srv := newAuthServer(t, &calls, 3600)
	defer srv.Close()

	m := NewTokenManager(srv.URL, testCreds(), zerolog.Nop())
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	m.Invalidate()
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected re-auth after Invalidate, got %d calls", len(calls))
	}
	// Refresh token survives invalidation, so the second call used it
	if calls[1].grantType != "refresh_token" {
		t.Fatalf("expected refresh grant, got %q", calls[1].grantType)
	}
}
