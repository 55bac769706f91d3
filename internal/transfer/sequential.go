package transfer

import (
	"context"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/events"
)

// runSequential uploads the batch one file at a time, in input order.
// One file failing never stops the files after it. Cancellation is a
// flag checked between files: the file in flight finishes, the files
// after it are marked cancelled without starting. Exactly one terminal
// event fires at the end, whatever happened in between.
func (m *Manager) runSequential(ctx context.Context, handle *BatchHandle) {
	defer handle.markFinished()

	records := handle.Records()
	total := len(records)

	for i, rec := range records {
		if handle.cancelRequested() {
			m.cancelRemaining(handle, i)
			break
		}

		handle.setStatus(i, FileUploading)
		if m.bus != nil {
			m.bus.PublishUploadProgress(handle.BatchID, i+1, total, rec.File.Name)
		}

		photoID, err := m.uploadOne(ctx, rec.File)
		if err != nil {
			handle.setResult(i, "", err)
			m.logger.Warn().Err(err).
				Str("batch", handle.BatchID).
				Str("file", rec.File.Name).
				Msg("File upload failed")
			if m.bus != nil {
				m.bus.PublishUploadError(handle.BatchID, rec.File.Name, err)
			}
			continue
		}

		handle.setResult(i, photoID, nil)
	}

	cancelled := handle.cancelRequested()
	results := handle.fileResults()
	uploaded := 0
	for _, r := range results {
		if r.OK {
			uploaded++
		}
	}
	m.logger.Info().
		Str("batch", handle.BatchID).
		Int("uploaded", uploaded).
		Int("total", total).
		Bool("cancelled", cancelled).
		Msg("Sequential batch finished")

	if m.bus != nil {
		if cancelled {
			m.bus.PublishUploadError(handle.BatchID, "", events.ErrCancelled)
		} else {
			m.bus.Publish(&events.UploadCompleteEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventUploadComplete, Time: time.Now()},
				BatchID:   handle.BatchID,
				Total:     total,
				Results:   results,
			})
		}
		if uploaded > 0 {
			// Fresh photos exist server-side: cached listings are stale
			m.bus.PublishCacheInvalidated(constants.CacheKeyPhotos)
		}
	}
}

// uploadOne pushes a single file under its own timeout.
func (m *Manager) uploadOne(ctx context.Context, f File) (string, error) {
	fileCtx, cancel := context.WithTimeout(ctx, constants.UploadRequestTimeout)
	defer cancel()

	result, err := m.uploader.UploadPhoto(fileCtx, f.Path, f.Name, nil)
	if err != nil {
		return "", err
	}
	return result.PhotoID, nil
}

// cancelRemaining marks every non-terminal file from index i on as
// cancelled. Finished files keep their outcome.
func (m *Manager) cancelRemaining(handle *BatchHandle, i int) {
	records := handle.Records()
	for j := i; j < len(records); j++ {
		handle.setStatus(j, FileCancelled)
	}
}
