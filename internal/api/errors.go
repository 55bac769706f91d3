// Package api provides the authenticated client for the PhotoBomb REST API.
package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotAuthenticated indicates there is no token pair to attach to a request.
var ErrNotAuthenticated = errors.New("not authenticated: run 'photobomb login' first")

// ErrRefreshFailed indicates the refresh token was rejected and a new login
// is required.
var ErrRefreshFailed = errors.New("token refresh failed: session expired")

// ErrDuplicatePhoto indicates the server already holds a photo with the
// same content hash (HTTP 409).
var ErrDuplicatePhoto = errors.New("photo already uploaded")

// ErrQuotaExceeded indicates the account storage quota is exhausted (HTTP 413).
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// APIError is a non-2xx response from the photo service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("API error %d", e.StatusCode)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Detail)
}

// IsDuplicateError checks if an error indicates a duplicate photo.
// Detects the wrapped sentinel, HTTP 409 responses, and error messages
// containing "duplicate" or "already uploaded".
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDuplicatePhoto) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 409 {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "duplicate") || strings.Contains(errStr, "already uploaded")
}

// IsAuthError checks if an error indicates a rejected or missing credential.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrRefreshFailed) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}
