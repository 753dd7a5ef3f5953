package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"gallery/internal/api"
	"gallery/internal/format"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeStructured(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeImageList(images []api.ImageResponse) error {
	if len(images) == 0 {
		return writePlain("no images\n")
	}
	for _, image := range images {
		if err := writePlain("%s\n", formatImageLine(image)); err != nil {
			return err
		}
	}
	return nil
}

func writeImageDetail(image api.ImageResponse) error {
	lines := []string{
		fmt.Sprintf("position: %d", image.Position),
		fmt.Sprintf("created_at: %s", formatTime(image.CreatedAt)),
		fmt.Sprintf("media_type: %s", image.MediaType),
		fmt.Sprintf("size: %s (%d bytes)", humanize.Bytes(uint64(image.SizeBytes)), image.SizeBytes),
		fmt.Sprintf("digest: %s", image.Digest),
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatImageLine(image api.ImageResponse) string {
	return fmt.Sprintf("%4d  %s  %-10s  %9s  %s",
		image.Position,
		formatTime(image.CreatedAt),
		image.MediaType,
		humanize.Bytes(uint64(image.SizeBytes)),
		shortDigest(image.Digest),
	)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
