package api

import (
	"context"
	"fmt"
	nethttp "net/http"
	"sync"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/models"
)

// refreshMu serializes concurrent refresh attempts so parallel requests
// hitting a 401 trigger one refresh, not a stampede.
var refreshMu sync.Mutex

// Login authenticates with email/password and stores the token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	body := map[string]string{"email": email, "password": password}

	resp, err := c.send(ctx, nethttp.MethodPost, "/api/auth/login", body)
	if err != nil {
		return nil, err
	}

	var pair models.TokenPair
	if err := decodeResponse(resp, &pair); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if err := c.tokens.Set(pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}
	return &pair, nil
}

// Register creates a new account and stores the returned token pair.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*models.TokenPair, error) {
	body := map[string]string{
		"email":     email,
		"password":  password,
		"full_name": fullName,
	}

	resp, err := c.send(ctx, nethttp.MethodPost, "/api/auth/register", body)
	if err != nil {
		return nil, err
	}

	var pair models.TokenPair
	if err := decodeResponse(resp, &pair); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	if err := c.tokens.Set(pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}
	return &pair, nil
}

// Logout drops the stored session.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// refreshTokens exchanges the refresh token for a new pair. Exactly one
// refresh runs at a time; observedGen is the token generation the caller
// saw when it decided a refresh was needed — if the pair already changed
// since then, the refresh it was waiting for has happened and this is a
// no-op.
func (c *Client) refreshTokens(ctx context.Context, observedGen uint64) error {
	refreshMu.Lock()
	defer refreshMu.Unlock()

	if c.tokens.Generation() != observedGen {
		return nil
	}

	refresh := c.tokens.Refresh()
	if refresh == "" {
		return ErrNotAuthenticated
	}

	body := map[string]string{"refresh_token": refresh}
	resp, err := c.send(ctx, nethttp.MethodPost, "/api/auth/refresh", body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	var pair models.TokenPair
	if err := decodeResponse(resp, &pair); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	// Some backends rotate only the access token
	if pair.RefreshToken == "" {
		pair.RefreshToken = refresh
	}
	if err := c.tokens.Set(pair.AccessToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	c.logger.Debug().Msg("Access token refreshed")
	return nil
}
