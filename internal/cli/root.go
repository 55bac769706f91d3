// Package cli provides the command-line interface for photobomb.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/api"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/config"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
)

var (
	// Global flags
	cfgFile    string
	apiBaseURL string
	verbose    bool
	noSpool    bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// Version information - set by main package at startup
var (
	Version   = "v1.2.0-dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "photobomb",
		Short: "PhotoBomb - photo library client with background uploads",
		Long: `PhotoBomb ` + Version + ` - Built: ` + BuildTime + `
Client for the PhotoBomb photo service.

Uploads run in batches: when the spool daemon (photobomb spoold) is
running and bound to the same service, batches are handed to it and
survive this process exiting. Otherwise files upload one at a time in
the foreground.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			if verbose {
				logging.SetGlobalLevel(-1) // zerolog.DebugLevel
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "Photo service base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&noSpool, "no-spool", false, "Skip the spool daemon, upload in the foreground")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newPhotosCmd())
	rootCmd.AddCommand(newAlbumsCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newSpoolDaemonCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// Execute runs the CLI, returning the process exit code.
func Execute() int {
	rootContext, cancelFunc = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelFunc()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(rootContext); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if apiBaseURL != "" {
		cfg.APIBaseURL = apiBaseURL
	}
	if noSpool {
		cfg.Spool.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (set api_url in the config or pass --api-url)", err)
	}
	return cfg, nil
}

// newAPIClient builds an authenticated client from config.
func newAPIClient(cfg *config.Config) (*api.Client, error) {
	tokens := api.NewTokenStore(cfg.TokenFile)
	if err := tokens.Load(); err != nil {
		return nil, err
	}
	return api.NewClient(cfg.APIBaseURL, tokens, logger), nil
}
