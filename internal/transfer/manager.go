package transfer

import (
	"context"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/api"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/events"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/models"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/spool"
)

// Uploader is the slice of the API client the sequential path needs.
type Uploader interface {
	UploadPhoto(ctx context.Context, localPath, filename string, progress api.ProgressFunc) (*models.UploadResult, error)
}

// Manager starts upload batches. Strategy is decided once per batch:
// the spool daemon gets the batch when it is enabled, reachable, and
// bound to the same API origin; everything else falls back to the
// in-process sequential path.
type Manager struct {
	uploader Uploader
	queue    spool.Queue
	bus      *events.EventBus
	logger   *logging.Logger

	// origin is the API origin this manager uploads to
	origin string

	// spoolEnabled gates the native strategy entirely
	spoolEnabled bool
}

// Options configures a Manager.
type Options struct {
	Uploader Uploader
	Queue    spool.Queue
	Bus      *events.EventBus
	Logger   *logging.Logger

	Origin       string
	SpoolEnabled bool
}

// NewManager creates a batch upload manager.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Manager{
		uploader:     opts.Uploader,
		queue:        opts.Queue,
		bus:          opts.Bus,
		logger:       logger,
		origin:       opts.Origin,
		spoolEnabled: opts.SpoolEnabled,
	}
}

// Bus exposes the event bus batches publish on.
func (m *Manager) Bus() *events.EventBus {
	return m.bus
}

// UploadFiles starts one batch and returns as soon as it is underway.
// Native batches are registered with the daemon before returning; the
// daemon owns them afterwards. Sequential batches run on a goroutine
// behind the returned handle.
func (m *Manager) UploadFiles(ctx context.Context, files []File) (*BatchHandle, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	strategy := m.chooseStrategy(ctx)
	batchID := NewBatchID(strategy)

	m.logger.Info().
		Str("batch", batchID).
		Str("strategy", string(strategy)).
		Int("files", len(files)).
		Msg("Starting upload batch")

	if strategy == StrategySpool {
		handle, err := m.startSpool(ctx, batchID, files)
		if err == nil {
			return handle, nil
		}
		// Registration failed after a good probe: daemon died between
		// the two calls. Fall back rather than fail the batch.
		m.logger.Warn().Err(err).Str("batch", batchID).Msg("Spool registration failed, falling back to sequential")
		batchID = NewBatchID(StrategySequential)
	}

	return m.startSequential(ctx, batchID, files), nil
}

// chooseStrategy runs the capability checks, once per batch.
func (m *Manager) chooseStrategy(ctx context.Context) Strategy {
	if !m.spoolEnabled || m.queue == nil {
		return StrategySequential
	}
	if !m.queue.Available(ctx) {
		m.logger.Debug().Msg("Spool daemon unavailable, using sequential strategy")
		return StrategySequential
	}
	origin, err := m.queue.Origin(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Msg("Spool origin check failed, using sequential strategy")
		return StrategySequential
	}
	if origin != m.origin {
		m.logger.Warn().
			Str("spool_origin", origin).
			Str("api_origin", m.origin).
			Msg("Spool daemon bound to a different origin, using sequential strategy")
		return StrategySequential
	}
	return StrategySpool
}

// startSpool registers the batch with the daemon. The handle is done
// immediately: ownership has moved.
func (m *Manager) startSpool(ctx context.Context, batchID string, files []File) (*BatchHandle, error) {
	requests := make([]spool.UploadRequest, len(files))
	for i, f := range files {
		requests[i] = spool.UploadRequest{
			LocalPath: f.Path,
			Filename:  f.Name,
			Size:      f.Size,
		}
	}

	if err := m.queue.Register(ctx, batchID, requests); err != nil {
		return nil, err
	}

	handle := newBatchHandle(batchID, StrategySpool, files)
	handle.abortFn = func(ctx context.Context) error {
		return m.queue.Abort(ctx, batchID)
	}
	handle.markFinished()

	if m.bus != nil {
		m.bus.PublishUploadStart(batchID, string(StrategySpool), len(files))
	}
	return handle, nil
}

// startSequential kicks off the in-process runner.
func (m *Manager) startSequential(ctx context.Context, batchID string, files []File) *BatchHandle {
	handle := newBatchHandle(batchID, StrategySequential, files)

	// The runner outlives the caller's ctx: a started batch is not
	// torn down because the starting call returned. Cancellation goes
	// through the handle's flag, never through this context, so an
	// in-flight upload is never hard-killed.
	runCtx := context.WithoutCancel(ctx)

	if m.bus != nil {
		m.bus.PublishUploadStart(batchID, string(StrategySequential), len(files))
	}

	go m.runSequential(runCtx, handle)
	return handle
}
