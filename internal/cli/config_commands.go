package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage client configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetURLCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			fmt.Printf("api_url:     %s\n", cfg.APIBaseURL)
			fmt.Printf("token_file:  %s\n", cfg.TokenFile)
			fmt.Printf("spool:       enabled=%t socket=%s\n", cfg.Spool.Enabled, cfg.Spool.Socket)
			fmt.Printf("state_file:  %s\n", cfg.Spool.StateFile)
			fmt.Printf("notify:      enabled=%t complete=%t failed=%t\n",
				cfg.Notifications.Enabled,
				cfg.Notifications.ShowUploadComplete,
				cfg.Notifications.ShowUploadFailed)
			return nil
		},
	}
}

func newConfigSetURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-url URL",
		Short: "Set the photo service base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			cfg.APIBaseURL = args[0]
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg, cfgFile); err != nil {
				return err
			}
			fmt.Printf("api_url set to %s\n", cfg.Origin())
			return nil
		},
	}
}
