package constants

import (
	"time"
)

// Application identity
const (
	// AppName - short name used for config directories and notifications
	AppName = "photobomb"
)

// Upload behavior
const (
	// UploadRequestTimeout - per-request timeout on the sequential upload path (10 minutes).
	// Bounds the "stuck request" case so a batch always reaches a terminal state.
	UploadRequestTimeout = 10 * time.Minute

	// MultipartFieldName - form field carrying the photo bytes in upload requests
	MultipartFieldName = "file"

	// MaxUploadRetries - transport-level retries for a single photo upload
	MaxUploadRetries = 3
)

// Retry configuration
const (
	// MaxRetries - maximum number of retries for transient errors
	MaxRetries = 10

	// RetryInitialDelay - initial delay before first retry (200ms)
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (15s)
	// Exponential backoff with jitter caps at this value
	RetryMaxDelay = 15 * time.Second
)

// Status widget
const (
	// StatusPollInterval - interval between spool queue polls while a
	// spool batch is active (2 seconds)
	StatusPollInterval = 2 * time.Second

	// StatusGracePeriod - how long a finished batch stays visible after
	// reaching 100% before it is dropped from the display (3 seconds)
	StatusGracePeriod = 3 * time.Second

	// StatusRenderMinInterval - minimum time between terminal redraws (100ms)
	// Prevents excessive repaints during rapid state changes
	StatusRenderMinInterval = 100 * time.Millisecond
)

// Spool daemon
const (
	// SpoolProbeTimeout - how long the capability probe waits for the
	// daemon socket before the manager falls back to sequential uploads
	SpoolProbeTimeout = 500 * time.Millisecond

	// SpoolRequestTimeout - timeout for control-plane calls to the daemon
	// (register, poll, abort). Uploads themselves run inside the daemon
	// and are not bounded by this.
	SpoolRequestTimeout = 5 * time.Second

	// SpoolStateVersion - on-disk state file format version
	SpoolStateVersion = "1.0.0"
)

// Event system
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios (5000)
	EventBusMaxBuffer = 5000
)

// Listing cache
const (
	// CacheDefaultTTL - how long a cached listing stays fresh without an
	// explicit invalidation (5 minutes)
	CacheDefaultTTL = 5 * time.Minute

	// CacheKeyPhotos - cache key for the photo timeline listing
	CacheKeyPhotos = "photos"

	// CacheKeyAlbums - cache key for the album listing
	CacheKeyAlbums = "albums"
)

// HTTP transport tuning
const (
	// HTTPIdleConnTimeout - how long idle pooled connections are kept
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - TLS handshake deadline
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - wait for HTTP 100-continue
	HTTPExpectContinueTimeout = 5 * time.Second
)

// Auth
const (
	// TokenRefreshLeeway - refresh the access token this long before its
	// recorded expiry instead of waiting for a 401
	TokenRefreshLeeway = 30 * time.Second
)
