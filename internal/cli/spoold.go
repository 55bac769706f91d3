package cli

import (
	"github.com/spf13/cobra"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/spool"
)

func newSpoolDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spoold",
		Short: "Run the background upload spool daemon",
		Long: `Run the spool daemon in the foreground.

The daemon listens on a local unix socket, accepts upload batches from
'photobomb upload', and drains them against the photo service. Batches
persist: a daemon restart resumes interrupted uploads where they
stopped. Registrations are only accepted for the service origin the
daemon was started with.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			daemonLogger := logging.NewDaemonLogger()
			if verbose {
				logging.SetGlobalLevel(-1)
			}

			daemon, err := spool.NewDaemon(cfg, daemonLogger)
			if err != nil {
				return err
			}

			daemonLogger.Info().
				Str("origin", cfg.Origin()).
				Str("socket", cfg.Spool.Socket).
				Msg("Spool daemon starting")
			return daemon.Run(cmd.Context())
		},
	}
}
