package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gallery/internal/api"
	"gallery/internal/archive"
	"gallery/internal/config"
	"gallery/internal/models"
)

func newExportCmd(cfg *config.Config) *cobra.Command {
	var (
		outputPath string
		formatName string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as a YAML manifest or SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat, err := resolveArchiveFormat(formatName, outputPath)
			if err != nil {
				return err
			}
			if exportFormat == archive.FormatSQLite && (outputPath == "" || outputPath == "-") {
				return fmt.Errorf("sqlite export requires --output <file>")
			}

			return withClient(cfg, func(client *api.Client) error {
				entries, err := fetchEntries(cmd.Context(), client)
				if err != nil {
					return err
				}
				if exportFormat == archive.FormatSQLite {
					return archive.WriteSQLite(outputPath, entries)
				}
				return writeYAMLExport(outputPath, entries)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&formatName, "format", "", "export format: yaml or sqlite (default from file extension)")
	return cmd
}

func resolveArchiveFormat(formatName, path string) (archive.Format, error) {
	if formatName != "" {
		return archive.ParseFormat(formatName)
	}
	return archive.FormatFromPath(path), nil
}

// fetchEntries downloads every image and checks it against the listing so a
// catalog that changes mid-export is reported instead of exported torn.
func fetchEntries(ctx context.Context, client *api.Client) ([]archive.Entry, error) {
	images, err := client.ListImages(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.ImageRecord, 0, len(images))
	for _, image := range images {
		var buf bytes.Buffer
		content, err := client.GetImageContent(ctx, image.Position, &buf)
		if err != nil {
			return nil, fmt.Errorf("fetch image %d: %w", image.Position, err)
		}
		if content.Digest != image.Digest {
			return nil, fmt.Errorf("catalog changed during export at position %d; retry", image.Position)
		}
		records = append(records, models.ImageRecord{Data: buf.Bytes(), CreatedAt: image.CreatedAt})
	}
	return archive.FromRecords(records), nil
}

var createExportFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func writeYAMLExport(outputPath string, entries []archive.Entry) error {
	if outputPath == "" || outputPath == "-" {
		return archive.WriteYAML(os.Stdout, entries, time.Now())
	}

	f, err := createExportFile(outputPath)
	if err != nil {
		return err
	}
	err = archive.WriteYAML(f, entries, time.Now())
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", outputPath, closeErr)
	}
	if err != nil {
		_ = os.Remove(outputPath)
	}
	return err
}
