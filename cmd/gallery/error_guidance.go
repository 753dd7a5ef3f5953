package main

import (
	"context"
	"errors"
	"net"

	"gallery/internal/api"
	"gallery/internal/server"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized", "forbidden":
			lines = append(lines, "hint: verify GALLERY_API_TOKEN matches the server's token.")
		case "resource_exhausted":
			lines = append(lines, "hint: retry shortly or reduce concurrent uploads.")
		case "not_found":
			lines = append(lines, "hint: run `gallery list` to see valid positions.")
		}
		switch apiErr.ErrorCode {
		case server.ErrCodeDigestMismatch:
			lines = append(lines, "hint: positions shift after every add or delete; run `gallery list` and retry with the current position.")
		case server.ErrCodeCatalogCorrupt:
			lines = append(lines, "hint: the catalog file could not be decoded and will not be overwritten; restore it from an export or move it aside.")
		case server.ErrCodeRequestTooLarge:
			lines = append(lines, "hint: raise images.max_upload_bytes with `gallery config set` or upload a smaller file.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify GALLERY_API_URL points to a gallery server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase GALLERY_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a gallery server is running at GALLERY_API_URL.",
			"hint: start local server manually with: gallery srv",
			"hint: you can increase GALLERY_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
