package main

import (
	"github.com/spf13/cobra"

	"gallery/internal/api"
	"gallery/internal/config"
)

func newListCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List images, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				images, err := client.ListImages(cmd.Context())
				if err != nil {
					return err
				}
				if limit > 0 && len(images) > limit {
					images = images[:limit]
				}
				if out.structured() {
					if images == nil {
						images = []api.ImageResponse{}
					}
					return writeStructured(images)
				}
				return writeImageList(images)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n images (0 = all)")
	return cmd
}
