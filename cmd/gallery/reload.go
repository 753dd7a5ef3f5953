package main

import (
	"github.com/spf13/cobra"

	"gallery/internal/api"
	"gallery/internal/config"
)

func newReloadCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make the server reread its catalog file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Reload(cmd.Context())
				if err != nil {
					return err
				}
				if out.structured() {
					return writeStructured(resp)
				}
				return writePlain("reloaded %d images\n", resp.TotalImages)
			})
		},
	}
}
