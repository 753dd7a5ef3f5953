package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gallery/internal/api"
	"gallery/internal/config"
)

func newShowCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "show <position>",
		Short: "Show an image's metadata or save its content",
		Args:  requirePosition,
		RunE: func(cmd *cobra.Command, args []string) error {
			position, _ := parsePosition(args[0])
			return withClient(cfg, func(client *api.Client) error {
				if outputPath == "" {
					image, err := client.GetImage(cmd.Context(), position)
					if err != nil {
						return err
					}
					if out.structured() {
						return writeStructured(image)
					}
					return writeImageDetail(image)
				}
				return saveImageContent(cmd, client, position, outputPath)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write image content to file (- for stdout)")
	return cmd
}

func saveImageContent(cmd *cobra.Command, client *api.Client, position int, outputPath string) error {
	var w io.Writer = os.Stdout
	var f *os.File
	if outputPath != "-" {
		var err error
		f, err = os.Create(outputPath)
		if err != nil {
			return err
		}
		w = f
	}

	content, err := client.GetImageContent(cmd.Context(), position, w)
	if f != nil {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(outputPath)
		}
	}
	if err != nil {
		return err
	}
	if f != nil {
		fmt.Fprintf(os.Stderr, "saved %d bytes (%s) to %s\n", content.SizeBytes, content.MediaType, outputPath)
	}
	return nil
}
