package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/cache"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/events"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/spool"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/status"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/transfer"
)

func newUploadCmd() *cobra.Command {
	var detach bool

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload photos in a batch",
		Long: `Upload one or more photos as a batch.

With the spool daemon running and bound to the same service, the batch
is registered with it and keeps uploading after this command exits.
Otherwise files upload here, one at a time, in the given order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			files, err := transfer.GatherFiles(args)
			if err != nil {
				return err
			}

			var queue spool.Queue
			if cfg.Spool.Enabled {
				queue = spool.NewClient(cfg.Spool.Socket)
			}

			bus := events.NewEventBus(constants.EventBusDefaultBuffer)
			defer bus.Close()

			manager := transfer.NewManager(transfer.Options{
				Uploader:     client,
				Queue:        queue,
				Bus:          bus,
				Logger:       logger,
				Origin:       cfg.Origin(),
				SpoolEnabled: cfg.Spool.Enabled,
			})

			// Listing cache: primed now, invalidated by the drain, so
			// the post-upload summary refetches a fresh count.
			listings := cache.NewListings(client, 0, logger)
			go listings.Cache().Watch(cmd.Context(), bus)
			var photosBefore = -1
			if list, err := listings.Photos(cmd.Context(), 0, 1); err == nil {
				photosBefore = list.Total
			}

			widget := status.NewWidget(status.Options{
				Bus:         bus,
				Queue:       queue,
				Logger:      logger,
				Renderer:    status.NewTerminalRenderer(),
				ExitOnDrain: true,
			})

			// NewWidget already subscribed to the bus, so the start
			// event below lands in its buffer even before Run is up.
			widgetDone := make(chan error, 1)
			go func() {
				widgetDone <- widget.Run(cmd.Context())
			}()

			handle, err := manager.UploadFiles(cmd.Context(), files)
			if err != nil {
				return err
			}

			if handle.Strategy == transfer.StrategySpool && detach {
				fmt.Printf("Batch %s handed to the spool daemon (%d files)\n", handle.BatchID, len(files))
				fmt.Println("Run 'photobomb status' to watch it")
				return nil
			}

			if err := <-widgetDone; err != nil {
				return err
			}

			if list, err := listings.Photos(cmd.Context(), 0, 1); err == nil {
				if photosBefore >= 0 && list.Total > photosBefore {
					fmt.Printf("Library now has %d photos (+%d)\n", list.Total, list.Total-photosBefore)
				} else {
					fmt.Printf("Library has %d photos\n", list.Total)
				}
			}

			failed := 0
			for _, r := range handle.Records() {
				if r.Status == transfer.FileError {
					failed++
				}
			}
			if handle.Strategy == transfer.StrategySequential && failed > 0 {
				return fmt.Errorf("%d of %d files failed to upload", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "Return right after handing the batch to the daemon")
	return cmd
}
