package spool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
)

// Client talks to the spool daemon over its unix socket. It implements
// Queue; the transfer manager probes it once per batch to decide on a
// strategy.
type Client struct {
	httpClient *http.Client
	socketPath string
}

// NewClient creates a client for the daemon at socketPath.
func NewClient(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			dialer := net.Dialer{Timeout: constants.SpoolProbeTimeout}
			return dialer.DialContext(ctx, "unix", socketPath)
		},
	}
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   constants.SpoolRequestTimeout,
		},
		socketPath: socketPath,
	}
}

// do performs one request against the daemon. The host in the URL is a
// placeholder; the transport always dials the socket.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal spool request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://spool"+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create spool request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("spool daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		_ = json.Unmarshal(data, &payload)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrUnknownBatch, payload.Error)
		}
		return fmt.Errorf("spool daemon error %d: %s", resp.StatusCode, payload.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode spool response: %w", err)
	}
	return nil
}

// Available reports whether the daemon answers its health check within
// the probe timeout.
func (c *Client) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, constants.SpoolProbeTimeout)
	defer cancel()

	var health healthResponse
	return c.do(probeCtx, http.MethodGet, "/healthz", nil, &health) == nil
}

// Origin returns the API origin the daemon is bound to.
func (c *Client) Origin(ctx context.Context) (string, error) {
	var health healthResponse
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &health); err != nil {
		return "", err
	}
	return health.Origin, nil
}

// Register hands a batch to the daemon.
func (c *Client) Register(ctx context.Context, batchID string, files []UploadRequest) error {
	req := registerRequest{BatchID: batchID, Files: files}
	return c.do(ctx, http.MethodPost, "/registrations", req, nil)
}

// Registrations lists all batches the daemon knows about.
func (c *Client) Registrations(ctx context.Context) ([]Registration, error) {
	var payload struct {
		Registrations []Registration `json:"registrations"`
	}
	if err := c.do(ctx, http.MethodGet, "/registrations", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Registrations, nil
}

// Progress returns the aggregate for one batch.
func (c *Client) Progress(ctx context.Context, batchID string) (*Progress, error) {
	var progress Progress
	if err := c.do(ctx, http.MethodGet, "/registrations/"+url.PathEscape(batchID)+"/progress", nil, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// Records returns the per-file detail for one batch.
func (c *Client) Records(ctx context.Context, batchID string) ([]Record, error) {
	var payload struct {
		Records []Record `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, "/registrations/"+url.PathEscape(batchID)+"/records", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Records, nil
}

// Abort cancels a batch. Aborting a finished batch is a no-op.
func (c *Client) Abort(ctx context.Context, batchID string) error {
	return c.do(ctx, http.MethodDelete, "/registrations/"+url.PathEscape(batchID), nil, nil)
}
