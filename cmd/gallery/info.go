package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gallery/internal/api"
	"gallery/internal/config"
)

func newInfoCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show catalog info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}
				if out.structured() {
					return writeStructured(resp)
				}

				_ = writePlain("catalog_path: %s\n", resp.CatalogPath)
				_ = writePlain("api_url: %s\n", cfg.APIURL)
				_ = writePlain("total_images: %d\n", resp.TotalImages)
				_ = writePlain("total_size: %s\n", humanize.Bytes(uint64(resp.TotalBytes)))
				if resp.NewestAt != nil {
					_ = writePlain("newest: %s (%s)\n", formatTime(*resp.NewestAt), humanize.Time(*resp.NewestAt))
				}
				return nil
			})
		},
	}
}
