package spool

import (
	"context"
	"fmt"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/api"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/config"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/notify"
)

// finishedRetention is how long terminal batches stay queryable before
// the daemon prunes them.
const finishedRetention = 24 * time.Hour

// Daemon bundles the state, worker, and socket server into one
// runnable unit.
type Daemon struct {
	state  *State
	worker *Worker
	server *Server
	logger *logging.Logger
}

// NewDaemon builds a daemon from config. The API client shares the
// CLI's token file, so a login from the CLI is visible here.
func NewDaemon(cfg *config.Config, logger *logging.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens := api.NewTokenStore(cfg.TokenFile)
	if err := tokens.Load(); err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}
	client := api.NewClient(cfg.APIBaseURL, tokens, logger)

	state := NewState(cfg.Spool.StateFile, cfg.Origin())
	if err := state.Load(); err != nil {
		return nil, err
	}

	worker := NewWorker(state, client, logger)
	notifier := notify.NewNotifier(cfg.Notifications, logger)
	worker.OnBatchDone = func(batchID string, p *Progress) {
		switch p.Status {
		case StatusCompleted:
			notifier.UploadComplete(p.UploadedFiles)
		case StatusFailed:
			notifier.UploadFailed(p.FailedFiles, p.TotalFiles)
		}
	}

	server := NewServer(cfg.Spool.Socket, state, worker, logger)

	return &Daemon{
		state:  state,
		worker: worker,
		server: server,
		logger: logger,
	}, nil
}

// Run serves the socket and drains batches until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	go d.worker.Run(ctx)
	go d.pruneLoop(ctx)
	return d.server.Serve(ctx)
}

func (d *Daemon) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.state.PruneFinished(finishedRetention); n > 0 {
				d.logger.Debug().Int("batches", n).Msg("Pruned finished batches")
			}
		}
	}
}
