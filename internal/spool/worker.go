package spool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/api"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
	internalhttp "github.com/bhargavkumar1612/photoBomb-sub000/internal/http"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/models"
)

// Uploader is the slice of the API client the worker needs.
type Uploader interface {
	UploadPhoto(ctx context.Context, localPath, filename string, progress api.ProgressFunc) (*models.UploadResult, error)
}

// Worker drains pending batches one at a time, oldest first. Files
// within a batch upload sequentially; one file failing never stops the
// rest of the batch.
type Worker struct {
	state    *State
	uploader Uploader
	logger   *logging.Logger

	// OnBatchDone fires after a batch reaches a terminal state.
	OnBatchDone func(batchID string, progress *Progress)

	wake chan struct{}

	mu      sync.Mutex
	cancels map[string]context.CancelFunc // per batch being drained
}

// NewWorker creates a worker over the given state and uploader.
func NewWorker(state *State, uploader Uploader, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Worker{
		state:    state,
		uploader: uploader,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// CancelBatch cancels the batch's in-flight upload, if it is the one
// currently draining. The abort handler calls this after marking the
// batch aborted.
func (w *Worker) CancelBatch(batchID string) {
	w.mu.Lock()
	cancel := w.cancels[batchID]
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (w *Worker) setCancel(batchID string, cancel context.CancelFunc) {
	w.mu.Lock()
	w.cancels[batchID] = cancel
	w.mu.Unlock()
}

func (w *Worker) clearCancel(batchID string) {
	w.mu.Lock()
	delete(w.cancels, batchID)
	w.mu.Unlock()
}

// Kick nudges the worker to look for pending batches.
func (w *Worker) Kick() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run drains batches until ctx is cancelled. A ticker backs up the
// kick channel so a missed wake never strands a batch.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		for {
			batchID := w.state.NextPending()
			if batchID == "" {
				break
			}
			w.drainBatch(ctx, batchID)
			if ctx.Err() != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		case <-ticker.C:
		}
	}
}

// drainBatch uploads every unfinished file of one batch. Uploads run
// under a per-batch context so an abort can cut the file in flight
// short instead of letting it run out its timeout.
func (w *Worker) drainBatch(ctx context.Context, batchID string) {
	batchCtx, cancel := context.WithCancel(ctx)
	w.setCancel(batchID, cancel)
	defer func() {
		cancel()
		w.clearCancel(batchID)
	}()

	if err := w.state.SetStatus(batchID, StatusUploading); err != nil {
		w.logger.Error().Err(err).Str("batch", batchID).Msg("Failed to mark batch uploading")
		return
	}

	records, err := w.state.Records(batchID)
	if err != nil {
		w.logger.Error().Err(err).Str("batch", batchID).Msg("Failed to read batch records")
		return
	}

	w.logger.Info().Str("batch", batchID).Int("files", len(records)).Msg("Draining batch")

	failures := 0
	for i, rec := range records {
		if ctx.Err() != nil {
			// Daemon shutting down: batch goes back to pending on restart
			_ = w.state.SetStatus(batchID, StatusPending)
			return
		}
		if w.aborted(batchID) {
			w.finish(batchID, StatusAborted)
			return
		}
		if rec.ResponseReady {
			if !rec.ResponseOK {
				failures++
			}
			continue
		}

		if err := w.uploadRecord(batchCtx, batchID, i, rec); err != nil {
			if ctx.Err() != nil {
				_ = w.state.SetStatus(batchID, StatusPending)
				return
			}
			if w.aborted(batchID) {
				// Abort cancelled the upload in flight
				w.finish(batchID, StatusAborted)
				return
			}
			failures++
			w.logger.Warn().Err(err).Str("batch", batchID).Str("file", rec.Filename).Msg("File upload failed")
		}
	}

	status := StatusCompleted
	if failures > 0 {
		status = StatusFailed
	}
	w.finish(batchID, status)
}

// uploadRecord pushes one file with its own timeout and writes the
// outcome back into the record. Transient network failures are retried
// with backoff; fatal API answers (duplicate, quota) are not.
func (w *Worker) uploadRecord(ctx context.Context, batchID string, i int, rec Record) error {
	fileCtx, cancel := context.WithTimeout(ctx, constants.UploadRequestTimeout)
	defer cancel()

	retryCfg := internalhttp.DefaultConfig()
	retryCfg.MaxRetries = constants.MaxUploadRetries
	retryCfg.OnRetry = func(attempt int, err error, errType internalhttp.ErrorType) {
		w.logger.Debug().Err(err).
			Str("batch", batchID).
			Str("file", rec.Filename).
			Int("attempt", attempt).
			Str("class", internalhttp.ErrorTypeName(errType)).
			Msg("Retrying file upload")
	}

	var result *models.UploadResult
	err := internalhttp.ExecuteWithRetry(fileCtx, retryCfg, func() error {
		var uerr error
		result, uerr = w.uploader.UploadPhoto(fileCtx, rec.LocalPath, rec.Filename, func(sent, total int64) {
			w.state.SetRecordBytes(batchID, i, sent)
		})
		return uerr
	})
	if err != nil {
		uerr := w.state.UpdateRecord(batchID, i, func(r *Record) {
			if r.ResponseReady {
				// Already stamped, likely by an abort
				return
			}
			r.ResponseReady = true
			r.ResponseOK = false
			r.Error = err.Error()
		})
		if uerr != nil {
			return errors.Join(err, uerr)
		}
		return err
	}

	return w.state.UpdateRecord(batchID, i, func(r *Record) {
		r.ResponseReady = true
		r.ResponseOK = true
		r.PhotoID = result.PhotoID
		r.Uploaded = r.Size
	})
}

func (w *Worker) aborted(batchID string) bool {
	status, err := w.state.Status(batchID)
	return err == nil && status == StatusAborted
}

func (w *Worker) finish(batchID, status string) {
	if err := w.state.SetStatus(batchID, status); err != nil {
		w.logger.Error().Err(err).Str("batch", batchID).Msg("Failed to finish batch")
		return
	}
	w.logger.Info().Str("batch", batchID).Str("status", status).Msg("Batch finished")

	if w.OnBatchDone != nil {
		if p, err := w.state.Progress(batchID); err == nil {
			w.OnBatchDone(batchID, p)
		}
	}
}
