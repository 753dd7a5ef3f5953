package main

import (
	"github.com/spf13/cobra"

	"gallery/internal/api"
	"gallery/internal/config"
)

func newRmCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	var digest string

	cmd := &cobra.Command{
		Use:     "rm <position>",
		Aliases: []string{"delete"},
		Short:   "Delete the image at a position",
		Long:    "Delete the image at a position. Later images shift down by one. Pass --digest to refuse the delete if the image at that position has changed.",
		Args:    requirePosition,
		RunE: func(cmd *cobra.Command, args []string) error {
			position, _ := parsePosition(args[0])
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.DeleteImage(cmd.Context(), position, digest)
				if err != nil {
					return err
				}
				if out.structured() {
					return writeStructured(resp)
				}
				return writePlain("deleted %d (%s)\n", resp.Position, shortDigest(resp.Digest))
			})
		},
	}

	cmd.Flags().StringVar(&digest, "digest", "", "expected digest of the image at position")
	return cmd
}
