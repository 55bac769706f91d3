package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/models"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/progress"
)

func newPhotosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Browse and manage photos",
	}
	cmd.AddCommand(newPhotosListCmd())
	cmd.AddCommand(newPhotosDownloadCmd())
	cmd.AddCommand(newPhotosDeleteCmd())
	return cmd
}

func newPhotosListCmd() *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List photos, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			list, err := client.ListPhotos(cmd.Context(), offset, limit)
			if err != nil {
				return err
			}

			printPhotos(list)
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Listing offset")
	cmd.Flags().IntVar(&limit, "limit", 50, "Page size")
	return cmd
}

func newPhotosDownloadCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "download PHOTO_ID...",
		Short: "Download original photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			for _, id := range args {
				photo, err := client.GetPhoto(cmd.Context(), id)
				if err != nil {
					return err
				}
				dest := filepath.Join(outDir, photo.Filename)

				reporter := progress.ForTerminal()
				reporter.Start(photo.SizeBytes, photo.Filename)
				written, err := client.DownloadPhoto(cmd.Context(), id, dest, func(sent, total int64) {
					reporter.Update(sent)
				})
				if err != nil {
					reporter.Error(err)
					return err
				}
				reporter.Finish()
				fmt.Printf("Saved %s (%s)\n", dest, formatBytes(written))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Destination directory")
	return cmd
}

func newPhotosDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PHOTO_ID...",
		Short: "Delete photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			for _, id := range args {
				if err := client.DeletePhoto(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", id)
			}
			return nil
		},
	}
}

func printPhotos(list *models.PhotoList) {
	if len(list.Photos) == 0 {
		fmt.Println("No photos")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PHOTO ID\tFILENAME\tSIZE\tUPLOADED")
	for _, p := range list.Photos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.PhotoID, p.Filename, formatBytes(p.SizeBytes),
			p.UploadedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Printf("%d-%d of %d\n", list.Offset+1, list.Offset+len(list.Photos), list.Total)
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
