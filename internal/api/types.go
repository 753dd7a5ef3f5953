package api

import "time"

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// ImageResponse describes one catalog entry. Position is only meaningful until
// the next create or delete.
type ImageResponse struct {
	Position  int       `json:"position" yaml:"position"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	SizeBytes int       `json:"size_bytes" yaml:"size_bytes"`
	MediaType string    `json:"media_type" yaml:"media_type"`
	Digest    string    `json:"digest" yaml:"digest"`
}

// InfoResponse is returned by GET /v1/info.
type InfoResponse struct {
	CatalogPath string     `json:"catalog_path" yaml:"catalog_path"`
	TotalImages int        `json:"total_images" yaml:"total_images"`
	TotalBytes  int64      `json:"total_bytes" yaml:"total_bytes"`
	NewestAt    *time.Time `json:"newest_at,omitempty" yaml:"newest_at,omitempty"`
}

// DeleteResponse is returned after a successful delete.
type DeleteResponse struct {
	Position int    `json:"position"`
	Digest   string `json:"digest"`
}

// ReloadResponse is returned by POST /v1/admin/reload.
type ReloadResponse struct {
	TotalImages int `json:"total_images" yaml:"total_images"`
}

// ImageContent describes a downloaded image payload.
type ImageContent struct {
	MediaType string
	Digest    string
	SizeBytes int64
}
