package transfer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/events"
)

// Strategy identifies how a batch is uploaded.
type Strategy string

const (
	// StrategySpool hands the batch to the spool daemon, which owns
	// it from registration on.
	StrategySpool Strategy = "spool"

	// StrategySequential uploads in-process, one file at a time.
	StrategySequential Strategy = "sequential"
)

// FileStatus is the per-file lifecycle within a batch.
type FileStatus string

const (
	FilePending   FileStatus = "pending"
	FileUploading FileStatus = "uploading"
	FileCompleted FileStatus = "completed"
	FileError     FileStatus = "error"
	FileCancelled FileStatus = "cancelled"
)

// terminal file statuses never transition again.
func (s FileStatus) terminal() bool {
	return s == FileCompleted || s == FileError || s == FileCancelled
}

// FileRecord tracks one file of a sequential batch.
type FileRecord struct {
	File    File
	Status  FileStatus
	PhotoID string
	Err     error
}

// NewBatchID builds a batch identifier carrying the strategy tag, so
// logs and the daemon state show at a glance how a batch ran.
func NewBatchID(strategy Strategy) string {
	return fmt.Sprintf("%s-%d", strategy, time.Now().UnixMilli())
}

// BatchHandle is the caller's view of a started batch. UploadFiles
// returns it as soon as the batch is underway; for native batches the
// daemon owns the work from that point, for sequential batches the
// uploads run on a goroutine behind the handle.
type BatchHandle struct {
	BatchID  string
	Strategy Strategy

	mu      sync.Mutex
	records []FileRecord

	cancelled bool // sequential: runner checks between files
	abortFn   func(context.Context) error
	done      chan struct{}
	finished  bool
}

func newBatchHandle(batchID string, strategy Strategy, files []File) *BatchHandle {
	records := make([]FileRecord, len(files))
	for i, f := range files {
		records[i] = FileRecord{File: f, Status: FilePending}
	}
	return &BatchHandle{
		BatchID:  batchID,
		Strategy: strategy,
		records:  records,
		done:     make(chan struct{}),
	}
}

// setStatus applies a forward-only transition; terminal states stick.
func (h *BatchHandle) setStatus(i int, status FileStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < 0 || i >= len(h.records) {
		return
	}
	if h.records[i].Status.terminal() {
		return
	}
	h.records[i].Status = status
}

func (h *BatchHandle) setResult(i int, photoID string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < 0 || i >= len(h.records) {
		return
	}
	if h.records[i].Status.terminal() {
		return
	}
	if err != nil {
		h.records[i].Status = FileError
		h.records[i].Err = err
	} else {
		h.records[i].Status = FileCompleted
		h.records[i].PhotoID = photoID
	}
}

// Records returns a snapshot of the per-file state.
func (h *BatchHandle) Records() []FileRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]FileRecord(nil), h.records...)
}

// fileResults converts the records into the event payload shape.
func (h *BatchHandle) fileResults() []events.FileResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	results := make([]events.FileResult, len(h.records))
	for i, r := range h.records {
		results[i] = events.FileResult{
			Filename: r.File.Name,
			Size:     r.File.Size,
			OK:       r.Status == FileCompleted,
			Err:      r.Err,
		}
	}
	return results
}

// markFinished closes Done exactly once.
func (h *BatchHandle) markFinished() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return
	}
	h.finished = true
	close(h.done)
}

// Done is closed when the batch needs no further attention from the
// caller: a sequential batch finished, or a native batch was handed to
// the daemon.
func (h *BatchHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until Done or ctx expires.
func (h *BatchHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops the batch best-effort. Files already uploaded stay
// uploaded; a sequential file already in flight finishes, files after
// it never start. Cancelling a finished batch is a no-op and never an
// error.
func (h *BatchHandle) Cancel(ctx context.Context) error {
	h.mu.Lock()
	if !h.finished {
		h.cancelled = true
	}
	h.mu.Unlock()

	if h.abortFn != nil {
		return h.abortFn(ctx)
	}
	return nil
}

// cancelRequested reports whether Cancel was called before the batch
// finished.
func (h *BatchHandle) cancelRequested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}
