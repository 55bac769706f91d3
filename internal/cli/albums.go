package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAlbumsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "albums",
		Short: "Manage albums",
	}
	cmd.AddCommand(newAlbumsListCmd())
	cmd.AddCommand(newAlbumsCreateCmd())
	cmd.AddCommand(newAlbumsDeleteCmd())
	cmd.AddCommand(newAlbumsAddCmd())
	return cmd
}

func newAlbumsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List albums",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			albums, err := client.ListAlbums(cmd.Context())
			if err != nil {
				return err
			}

			if len(albums) == 0 {
				fmt.Println("No albums")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ALBUM ID\tNAME\tPHOTOS\tCREATED")
			for _, a := range albums {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					a.AlbumID, a.Name, a.PhotoCount,
					a.CreatedAt.Local().Format("2006-01-02"))
			}
			w.Flush()
			return nil
		},
	}
}

func newAlbumsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create an album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			album, err := client.CreateAlbum(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created album %s (%s)\n", album.Name, album.AlbumID)
			return nil
		},
	}
}

func newAlbumsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ALBUM_ID",
		Short: "Delete an album (photos are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			if err := client.DeleteAlbum(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted album %s\n", args[0])
			return nil
		},
	}
}

func newAlbumsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add ALBUM_ID PHOTO_ID...",
		Short: "Add photos to an album",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			albumID := args[0]
			for _, photoID := range args[1:] {
				if err := client.AddPhotoToAlbum(cmd.Context(), albumID, photoID); err != nil {
					return err
				}
				fmt.Printf("Added %s to %s\n", photoID, albumID)
			}
			return nil
		},
	}
}
