package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
)

// NewTransferClient creates an HTTP client tuned for photo uploads.
//
// Key features:
//   - Connection pooling sized for a handful of concurrent transfers
//   - No overall client timeout; each operation sets its own via context
//   - HTTP/2 support with runtime toggle (DISABLE_HTTP2 env var)
//   - Disabled compression (no benefit for already-compressed images)
//
// The same client is shared by the CLI's sequential upload path and the
// spool daemon's worker so both behave identically on the wire.
func NewTransferClient() *nethttp.Client {
	tr := &nethttp.Transport{
		Proxy: nethttp.ProxyFromEnvironment,

		// Pooling - a batch upload reuses a small number of connections
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 16,
		MaxConnsPerHost:     16,
		IdleConnTimeout:     constants.HTTPIdleConnTimeout,

		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,

		// JPEG/HEIC/PNG payloads are already compressed
		DisableCompression: true,
		ForceAttemptHTTP2:  true,
	}

	_ = http2.ConfigureTransport(tr)

	// Runtime toggle for HTTP/2 (useful for debugging or compatibility issues)
	if os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	return &nethttp.Client{
		Transport: tr,
		Timeout:   0, // per-operation timeouts via context
	}
}
