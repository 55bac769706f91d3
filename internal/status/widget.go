package status

import (
	"context"
	"sync"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/events"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/spool"
)

// Renderer draws the widget. The terminal renderer lives in render.go;
// tests substitute a recorder.
type Renderer interface {
	Render(model Model)
	Close()
}

// Options configures a Widget.
type Options struct {
	Bus      *events.EventBus
	Queue    spool.Queue
	Logger   *logging.Logger
	Renderer Renderer

	// PollInterval is how often active spool batches are queried.
	PollInterval time.Duration

	// GracePeriod keeps the final state on screen after the last
	// batch drains before the widget exits.
	GracePeriod time.Duration

	// ExitOnDrain makes Run return once everything drained and the
	// grace period passed. The upload command uses this; the status
	// command keeps watching.
	ExitOnDrain bool
}

// Widget merges pushed lifecycle events with polled daemon state and
// renders the combined batch list. It also owns the cache invalidation
// for spool batches: exactly one invalidation per drain of the active
// set (the sequential path invalidates for itself).
type Widget struct {
	bus      *events.EventBus
	queue    spool.Queue
	logger   *logging.Logger
	renderer Renderer

	pollInterval time.Duration
	gracePeriod  time.Duration
	exitOnDrain  bool

	// eventCh is subscribed at construction time, so events published
	// between NewWidget and Run are buffered, not lost.
	eventCh <-chan events.Event

	mu    sync.Mutex
	model Model
	kick  chan struct{}

	// sawActiveSpool arms the invalidation; it fires when the set
	// drains and re-arms when a new spool batch appears.
	sawActiveSpool bool
	drainedAt      time.Time
}

// NewWidget creates a widget. Bus and Renderer are required; Queue may
// be nil when no daemon is configured.
func NewWidget(opts Options) *Widget {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = constants.StatusPollInterval
	}
	gracePeriod := opts.GracePeriod
	if gracePeriod <= 0 {
		gracePeriod = constants.StatusGracePeriod
	}
	w := &Widget{
		bus:          opts.Bus,
		queue:        opts.Queue,
		logger:       logger,
		renderer:     opts.Renderer,
		pollInterval: pollInterval,
		gracePeriod:  gracePeriod,
		exitOnDrain:  opts.ExitOnDrain,
		kick:         make(chan struct{}, 1),
	}
	if w.bus != nil {
		w.eventCh = w.bus.SubscribeAll()
	}
	return w
}

// Toggle flips between the collapsed batch view and the expanded
// per-file view. It never cancels anything.
func (w *Widget) Toggle() {
	w.mu.Lock()
	var changed bool
	w.model, changed = SetExpanded(w.model, !w.model.Expanded)
	w.mu.Unlock()
	if changed {
		w.nudge()
	}
}

// Cancel aborts one batch, best-effort. Distinct from Toggle: pressing
// cancel never changes the expanded state.
func (w *Widget) Cancel(ctx context.Context, batchID string) error {
	if w.queue == nil {
		return nil
	}
	err := w.queue.Abort(ctx, batchID)
	if err != nil {
		w.logger.Warn().Err(err).Str("batch", batchID).Msg("Batch abort failed")
	}
	w.nudge()
	return err
}

// Seed preloads the model from the daemon's registration list, so the
// status command shows batches started by other processes.
func (w *Widget) Seed(ctx context.Context) {
	if w.queue == nil {
		return
	}
	regs, err := w.queue.Registrations(ctx)
	if err != nil {
		w.logger.Debug().Err(err).Msg("Spool registration listing failed")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, reg := range regs {
		p := &spool.Progress{
			BatchID:    reg.BatchID,
			Status:     reg.Status,
			TotalFiles: reg.FileCount,
			Total:      reg.TotalBytes,
		}
		w.model, _ = ApplyProgress(w.model, p)
	}
}

// Model returns a snapshot of the current model.
func (w *Widget) Model() Model {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model
}

func (w *Widget) nudge() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Widget) render() {
	w.mu.Lock()
	snapshot := w.model
	w.mu.Unlock()
	w.renderer.Render(snapshot)
}

// Run drives the widget until ctx is cancelled (or, with ExitOnDrain,
// until everything drained and the grace period passed).
func (w *Widget) Run(ctx context.Context) error {
	eventCh := w.eventCh
	if w.bus != nil {
		defer w.bus.UnsubscribeAll(w.eventCh)
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer w.renderer.Close()

	w.render()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-eventCh:
			if !ok {
				eventCh = nil
				continue
			}
			w.applyEvent(ev)

		case <-w.kick:
			w.render()

		case <-ticker.C:
			w.poll(ctx)
			if w.checkDrained() {
				return nil
			}
		}
	}
}

func (w *Widget) applyEvent(ev events.Event) {
	w.mu.Lock()
	var changed bool
	w.model, changed = ApplyEvent(w.model, ev)
	if changed && len(w.model.ActiveSpoolBatches()) > 0 {
		w.sawActiveSpool = true
		w.drainedAt = time.Time{}
	}
	w.mu.Unlock()

	if changed {
		w.render()
	}
}

// poll queries the daemon for every active spool batch. The per-file
// records query is the expensive one; it only runs while the widget is
// expanded.
func (w *Widget) poll(ctx context.Context) {
	if w.queue == nil {
		return
	}

	w.mu.Lock()
	ids := w.model.ActiveSpoolBatches()
	expanded := w.model.Expanded
	if len(ids) > 0 {
		w.sawActiveSpool = true
		w.drainedAt = time.Time{}
	}
	w.mu.Unlock()

	changed := false
	for _, id := range ids {
		progress, err := w.queue.Progress(ctx, id)
		if err != nil {
			w.logger.Debug().Err(err).Str("batch", id).Msg("Spool progress poll failed")
			continue
		}
		w.mu.Lock()
		var c bool
		w.model, c = ApplyProgress(w.model, progress)
		w.mu.Unlock()
		changed = changed || c

		if expanded {
			records, err := w.queue.Records(ctx, id)
			if err != nil {
				w.logger.Debug().Err(err).Str("batch", id).Msg("Spool records poll failed")
				continue
			}
			w.mu.Lock()
			w.model, c = ApplyRecords(w.model, id, records)
			w.mu.Unlock()
			changed = changed || c
		}
	}

	if changed {
		w.render()
	}
}

// checkDrained fires the one-shot cache invalidation when the active
// spool set empties, prunes terminal batches past the grace period, and
// decides whether Run should exit.
func (w *Widget) checkDrained() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	spoolActive := len(w.model.ActiveSpoolBatches()) > 0
	if w.sawActiveSpool && !spoolActive {
		w.sawActiveSpool = false
		uploaded := 0
		for _, b := range w.model.Batches {
			if b.Strategy == "spool" {
				uploaded += b.UploadedFiles
			}
		}
		if uploaded > 0 && w.bus != nil {
			w.bus.PublishCacheInvalidated(constants.CacheKeyPhotos)
		}
	}

	var pruned bool
	w.model, pruned = Prune(w.model, w.gracePeriod)
	if pruned {
		w.nudge()
	}

	if !w.exitOnDrain {
		return false
	}
	if w.drainedAt.IsZero() {
		if w.model.Drained() {
			w.drainedAt = now()
		}
		return false
	}
	// An empty model here means the drained batches were pruned, which
	// still counts as drained for the exit decision.
	if !w.model.Drained() && len(w.model.Batches) > 0 {
		w.drainedAt = time.Time{}
		return false
	}
	return now().Sub(w.drainedAt) >= w.gracePeriod
}
