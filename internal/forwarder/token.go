// Package forwarder is the client for the freight-forwarder's API: OAuth2
// token lifecycle plus typed fetch helpers over the REST endpoints.
package forwarder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"freightsync/internal/metrics"
)

// ErrMissingCredentials means the password-grant credential set is incomplete.
// This is a deployment configuration problem, not a transient failure.
var ErrMissingCredentials = errors.New("forwarder: client id, client secret, username and password must all be set")

// AuthError is a rejection from the authorization server.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("forwarder: token endpoint returned %d: %s", e.Status, e.Body)
}

// TokenSource yields a valid bearer token, re-authenticating as needed.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Credentials for the password grant. Values are trimmed before use;
// untrimmed credentials are a known source of silent auth failures.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

func (c Credentials) trimmed() Credentials {
	return Credentials{
		ClientID:     strings.TrimSpace(c.ClientID),
		ClientSecret: strings.TrimSpace(c.ClientSecret),
		Username:     strings.TrimSpace(c.Username),
		Password:     strings.TrimSpace(c.Password),
	}
}

func (c Credentials) complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.Username != "" && c.Password != ""
}

// expirySkew keeps us from presenting a token that is about to lapse
// mid-request.
const expirySkew = 5 * time.Minute

// TokenManager holds the single process-wide token cache. The cache is
// non-durable by design: a restart re-authenticates, and in a multi-instance
// deployment each instance keeps its own cache (bearer tokens are not
// single-use, so duplicate tokens in flight are harmless).
type TokenManager struct {
	tokenURL string
	creds    Credentials
	http     *http.Client
	log      zerolog.Logger
	now      func() time.Time

	mu        sync.Mutex
	access    string
	refresh   string
	expiresAt time.Time
}

func NewTokenManager(tokenURL string, creds Credentials, log zerolog.Logger) *TokenManager {
	return &TokenManager{
		tokenURL: tokenURL,
		creds:    creds.trimmed(),
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
		now:      time.Now,
	}
}

// Token returns the cached access token when it is still comfortably valid,
// otherwise tries a refresh grant and finally a full password grant. A failed
// refresh never propagates; it falls through to re-authentication.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.access != "" && m.now().Add(expirySkew).Before(m.expiresAt) {
		return m.access, nil
	}

	if m.refresh != "" {
		form := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {m.refresh},
			"scope":         {"offline_access"},
		}
		tok, err := m.grant(ctx, "refresh_token", form)
		if err == nil {
			m.cache(tok)
			return m.access, nil
		}
		m.log.Warn().Err(err).Msg("token refresh failed, re-authenticating")
		m.refresh = ""
	}

	if !m.creds.complete() {
		return "", ErrMissingCredentials
	}
	form := url.Values{
		"grant_type": {"password"},
		"username":   {m.creds.Username},
		"password":   {m.creds.Password},
		"scope":      {"offline_access"},
	}
	tok, err := m.grant(ctx, "password", form)
	if err != nil {
		return "", err
	}
	m.cache(tok)
	return m.access, nil
}

// Invalidate drops the cached access token so the next call re-acquires one.
// The refresh token is kept; it is still the cheapest path back to a token.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.access = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}

func (m *TokenManager) grant(ctx context.Context, grantType string, form url.Values) (tokenResponse, error) {
	var tok tokenResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tok, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(m.creds.ClientID, m.creds.ClientSecret)

	resp, err := m.http.Do(req)
	if err != nil {
		metrics.TokenRequests.WithLabelValues(grantType, "error").Inc()
		return tok, fmt.Errorf("forwarder: token request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		metrics.TokenRequests.WithLabelValues(grantType, "rejected").Inc()
		return tok, &AuthError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		metrics.TokenRequests.WithLabelValues(grantType, "error").Inc()
		return tok, fmt.Errorf("forwarder: decode token response: %w", err)
	}
	metrics.TokenRequests.WithLabelValues(grantType, "ok").Inc()
	return tok, nil
}

// cache replaces the token cell atomically; last write wins under concurrent
// re-authentication.
func (m *TokenManager) cache(tok tokenResponse) {
	m.access = tok.AccessToken
	m.expiresAt = m.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if tok.RefreshToken != "" {
		m.refresh = tok.RefreshToken
	}
}
