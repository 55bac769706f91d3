package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
)

// TokenStore holds the access/refresh token pair and persists it to disk
// so the CLI and the spool daemon share one session.
type TokenStore struct {
	mu      sync.RWMutex
	path    string
	access  string
	refresh string
	expires time.Time
	gen     uint64 // bumped on every Set, used to dedupe 401-triggered refreshes
}

// storedTokens is the on-disk representation.
type storedTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewTokenStore creates a store backed by the given file path.
// The file is loaded lazily; a missing file means "not authenticated".
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Set replaces the token pair and persists it.
func (ts *TokenStore) Set(access, refresh string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.access = access
	ts.refresh = refresh
	ts.expires = accessExpiry(access)
	ts.gen++

	return ts.saveLocked()
}

// Generation returns a counter that changes whenever the pair is replaced.
func (ts *TokenStore) Generation() uint64 {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.gen
}

// Access returns the current access token, or "" when not authenticated.
func (ts *TokenStore) Access() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.access
}

// Refresh returns the current refresh token.
func (ts *TokenStore) Refresh() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.refresh
}

// NeedsRefresh reports whether the access token is missing, expired, or
// inside the refresh leeway window.
func (ts *TokenStore) NeedsRefresh() bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.access == "" {
		return true
	}
	if ts.expires.IsZero() {
		// Opaque token: no claim to inspect, rely on 401 handling
		return false
	}
	return time.Now().After(ts.expires.Add(-constants.TokenRefreshLeeway))
}

// Load reads the persisted token pair. A missing file is not an error.
func (ts *TokenStore) Load() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	data, err := os.ReadFile(ts.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	var st storedTokens
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to parse token file: %w", err)
	}

	ts.access = st.AccessToken
	ts.refresh = st.RefreshToken
	ts.expires = st.ExpiresAt
	if ts.expires.IsZero() {
		ts.expires = accessExpiry(ts.access)
	}
	return nil
}

// Clear wipes the session (logout).
func (ts *TokenStore) Clear() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.access = ""
	ts.refresh = ""
	ts.expires = time.Time{}

	if err := os.Remove(ts.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

func (ts *TokenStore) saveLocked() error {
	if ts.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(ts.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(storedTokens{
		AccessToken:  ts.access,
		RefreshToken: ts.refresh,
		ExpiresAt:    ts.expires,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	// Tokens are credentials: owner-only
	if err := os.WriteFile(ts.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// accessExpiry extracts the exp claim from a JWT access token without
// verifying the signature (the server verifies; we only schedule refresh).
// Returns the zero time for opaque or malformed tokens.
func accessExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
