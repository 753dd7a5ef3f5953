package main

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"gallery/internal/api"
	"gallery/internal/archive"
	"gallery/internal/config"
)

type importResult struct {
	Imported int  `json:"imported" yaml:"imported"`
	DryRun   bool `json:"dry_run" yaml:"dry_run"`
}

func newImportCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	var (
		formatName string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import images from a YAML manifest or SQLite export",
		Long:  "Import images from an export. Entries are added oldest first so the imported images keep their relative order at the front of the gallery.",
		Args:  requireExactlyArgs(1, "import file is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			importFormat, err := resolveArchiveFormat(formatName, path)
			if err != nil {
				return err
			}
			entries, err := readArchive(importFormat, path)
			if err != nil {
				return err
			}

			result := importResult{Imported: len(entries), DryRun: dryRun}
			if !dryRun {
				err = withClient(cfg, func(client *api.Client) error {
					return uploadEntries(cmd, client, entries)
				})
				if err != nil {
					return err
				}
			}

			if out.structured() {
				return writeStructured(result)
			}
			if dryRun {
				return writePlain("would import %d images\n", result.Imported)
			}
			return writePlain("imported %d images\n", result.Imported)
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "", "import format: yaml or sqlite (default from file extension)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the export without importing")
	return cmd
}

func readArchive(format archive.Format, path string) ([]archive.Entry, error) {
	if format == archive.FormatSQLite {
		return archive.ReadSQLite(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return archive.ReadYAML(f)
}

func uploadEntries(cmd *cobra.Command, client *api.Client, entries []archive.Entry) error {
	for _, entry := range slices.Backward(entries) {
		_, err := client.UploadImage(cmd.Context(), api.UploadRequest{
			Filename:  fmt.Sprintf("import-%d", entry.Position),
			Content:   bytes.NewReader(entry.Data),
			CreatedAt: &entry.CreatedAt,
			Raw:       true,
		})
		if err != nil {
			return fmt.Errorf("import entry %d: %w", entry.Position, err)
		}
	}
	return nil
}
