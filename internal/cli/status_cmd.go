package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/events"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/spool"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/status"
)

func newStatusCmd() *cobra.Command {
	var once, expanded bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Watch the spool daemon's upload batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			queue := spool.NewClient(cfg.Spool.Socket)
			if !queue.Available(cmd.Context()) {
				fmt.Println("Spool daemon is not running")
				fmt.Println("Start it with 'photobomb spoold'")
				return nil
			}

			if once {
				return printStatusOnce(cmd, queue)
			}

			bus := events.NewEventBus(constants.EventBusDefaultBuffer)
			defer bus.Close()

			widget := status.NewWidget(status.Options{
				Bus:      bus,
				Queue:    queue,
				Logger:   logger,
				Renderer: status.NewTerminalRenderer(),
			})
			widget.Seed(cmd.Context())
			if expanded {
				widget.Toggle()
			}

			err = widget.Run(cmd.Context())
			if err == cmd.Context().Err() {
				// Ctrl-C is how this command exits
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Print a snapshot and exit")
	cmd.Flags().BoolVarP(&expanded, "expanded", "x", false, "Show per-file detail")
	return cmd
}

func printStatusOnce(cmd *cobra.Command, queue spool.Queue) error {
	regs, err := queue.Registrations(cmd.Context())
	if err != nil {
		return err
	}
	if len(regs) == 0 {
		fmt.Println("No batches")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BATCH\tSTATUS\tFILES\tSIZE\tSTARTED")
	for _, reg := range regs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			reg.BatchID, reg.Status, reg.FileCount,
			formatBytes(reg.TotalBytes),
			reg.CreatedAt.Local().Format("15:04:05"))
	}
	return w.Flush()
}
