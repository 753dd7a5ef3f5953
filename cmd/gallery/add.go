package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gallery/internal/api"
	"gallery/internal/config"
	"gallery/internal/models"
)

func newAddCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	var (
		source    string
		raw       bool
		createdAt string
	)

	cmd := &cobra.Command{
		Use:   "add <file>...",
		Short: "Add images to the front of the gallery",
		Long:  "Add images to the front of the gallery. Files are added in order, so the last file ends up at position 0.",
		Args:  requireAtLeastArgs(1, "at least one file is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := models.ParseImageSource(source); err != nil {
				return err
			}
			var created *time.Time
			if strings.TrimSpace(createdAt) != "" {
				t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(createdAt))
				if err != nil {
					return fmt.Errorf("invalid --created-at %q: expected RFC3339", createdAt)
				}
				created = &t
			}

			return withClient(cfg, func(client *api.Client) error {
				added := make([]api.ImageResponse, 0, len(args))
				for _, path := range args {
					image, err := uploadFile(cmd, client, path, api.UploadRequest{
						Source:    source,
						CreatedAt: created,
						Raw:       raw,
					})
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					added = append(added, image)
				}
				if out.structured() {
					return writeStructured(added)
				}
				for _, image := range added {
					if err := writePlain("added %s\n", formatImageLine(image)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", string(models.SourceLibrary), "image source (camera|library)")
	cmd.Flags().BoolVar(&raw, "raw", false, "store the file bytes as-is without resizing")
	cmd.Flags().StringVar(&createdAt, "created-at", "", "creation time (RFC3339, default now)")
	return cmd
}

func uploadFile(cmd *cobra.Command, client *api.Client, path string, req api.UploadRequest) (api.ImageResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return api.ImageResponse{}, err
	}
	defer f.Close()

	req.Filename = filepath.Base(path)
	req.Content = f
	return client.UploadImage(cmd.Context(), req)
}
