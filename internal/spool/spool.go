// Package spool implements the background upload queue: a local daemon
// that accepts batch registrations over a unix socket and drains them
// against the photo service even after the registering CLI exits.
package spool

import (
	"context"
	"errors"
	"time"
)

// Status values for a registration.
const (
	StatusPending   = "pending"
	StatusUploading = "uploading"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusAborted   = "aborted"
)

// ErrUnknownBatch indicates a batch ID with no registration.
var ErrUnknownBatch = errors.New("no registration for batch")

// ErrOriginMismatch indicates the daemon is bound to a different API
// origin than the caller's.
var ErrOriginMismatch = errors.New("spool daemon bound to a different origin")

// UploadRequest is one file the caller wants spooled.
type UploadRequest struct {
	LocalPath string `json:"local_path"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
}

// Record is the per-file view of a registration. ResponseReady flips
// when the server has answered for this file; ResponseOK then tells
// success from failure.
type Record struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	LocalPath     string `json:"local_path"`
	Size          int64  `json:"size"`
	Uploaded      int64  `json:"uploaded"`
	ResponseReady bool   `json:"response_ready"`
	ResponseOK    bool   `json:"response_ok"`
	PhotoID       string `json:"photo_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Registration is the batch-level view.
type Registration struct {
	BatchID    string    `json:"batch_id"`
	Status     string    `json:"status"`
	FileCount  int       `json:"file_count"`
	TotalBytes int64     `json:"total_bytes"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Progress is the cheap aggregate answer for one batch. Byte totals are
// best effort: Total is 0 when file sizes were unknown at registration.
type Progress struct {
	BatchID       string `json:"batch_id"`
	Status        string `json:"status"`
	Uploaded      int64  `json:"uploaded"`
	Total         int64  `json:"total"`
	UploadedFiles int    `json:"uploaded_files"`
	FailedFiles   int    `json:"failed_files"`
	TotalFiles    int    `json:"total_files"`
	Done          bool   `json:"done"`
}

// Queue is the capability the transfer manager and the status widget
// program against. The real implementation talks to the daemon over a
// unix socket; tests substitute an in-memory fake.
type Queue interface {
	// Available reports whether the daemon is up and answering.
	Available(ctx context.Context) bool

	// Origin returns the API origin the daemon is bound to.
	Origin(ctx context.Context) (string, error)

	// Register hands a batch to the daemon. The daemon owns the batch
	// from this point; the caller may exit.
	Register(ctx context.Context, batchID string, files []UploadRequest) error

	// Registrations lists all batches the daemon knows about.
	Registrations(ctx context.Context) ([]Registration, error)

	// Progress returns the aggregate for one batch.
	Progress(ctx context.Context, batchID string) (*Progress, error)

	// Records returns the per-file detail for one batch. Callers poll
	// this only when they need the expensive per-file view.
	Records(ctx context.Context, batchID string) ([]Record, error)

	// Abort cancels a batch. Files already uploaded stay uploaded.
	Abort(ctx context.Context, batchID string) error
}
