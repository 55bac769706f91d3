package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	internalhttp "github.com/bhargavkumar1612/photoBomb-sub000/internal/http"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
)

// retryLogger implements the retryablehttp.LeveledLogger interface,
// forwarding only warnings and errors to the structured logger.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Msgf("[retry] %s %v", msg, keysAndValues)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Msgf("[retry] %s %v", msg, keysAndValues)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// Client is the authenticated PhotoBomb API client.
//
// Request flow: bearer token attached from the TokenStore; a 401 response
// triggers one refresh followed by one retry of the original request, then
// the error surfaces. Transport-level transient failures are retried by
// retryablehttp underneath.
type Client struct {
	httpClient     *nethttp.Client // retryablehttp-wrapped, for JSON calls
	transferClient *nethttp.Client // raw tuned client, for streaming uploads
	baseURL        string
	tokens         *TokenStore
	logger         *logging.Logger
}

// NewClient creates a new API client for the given base URL.
func NewClient(baseURL string, tokens *TokenStore, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}

	transferClient := internalhttp.NewTransferClient()

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = internalhttp.NewTransferClient()
	retryClient.RetryMax = 5
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = &retryLogger{logger: logger}

	return &Client{
		httpClient:     retryClient.StandardClient(),
		transferClient: transferClient,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		tokens:         tokens,
		logger:         logger,
	}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Origin returns the scheme://host[:port] of the API base URL.
func (c *Client) Origin() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL
	}
	return u.Scheme + "://" + u.Host
}

// Tokens exposes the token store (the spool daemon shares it).
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// doRequest performs an authenticated JSON request with the 401
// refresh-and-retry-once behavior. The body must be JSON-marshalable;
// it is re-marshaled for the retry, so no rewind issues.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	// Proactive refresh when the access token is near expiry
	if c.tokens != nil && c.tokens.Refresh() != "" && c.tokens.NeedsRefresh() {
		if err := c.refreshTokens(ctx, c.tokens.Generation()); err != nil {
			c.logger.Debug().Err(err).Msg("Proactive token refresh failed, relying on 401 handling")
		}
	}

	gen := uint64(0)
	if c.tokens != nil {
		gen = c.tokens.Generation()
	}

	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == nethttp.StatusUnauthorized && c.tokens != nil && c.tokens.Refresh() != "" {
		drainAndClose(resp.Body)
		if err := c.refreshTokens(ctx, gen); err != nil {
			return nil, err
		}
		return c.send(ctx, method, path, body)
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if access := c.tokens.Access(); access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	return resp, nil
}

// decodeResponse reads a response into out, mapping non-2xx statuses to
// *APIError. out may be nil when the caller only cares about the status.
func decodeResponse(resp *nethttp.Response, out interface{}) error {
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorFromResponse builds an *APIError from a non-2xx response, pulling
// the "detail" field FastAPI-style services put in error bodies.
func errorFromResponse(resp *nethttp.Response) error {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	detail := ""
	if json.Unmarshal(data, &payload) == nil && len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			detail = s
		} else {
			detail = string(payload.Detail)
		}
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Detail: detail}
	switch resp.StatusCode {
	case nethttp.StatusConflict:
		return fmt.Errorf("%w: %w", ErrDuplicatePhoto, apiErr)
	case nethttp.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, apiErr)
	}
	return apiErr
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}
