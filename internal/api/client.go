package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpTimeoutEnvKey  = "GALLERY_HTTP_TIMEOUT"
	apiTokenEnvKey     = "GALLERY_API_TOKEN"
)

// Client is a simple HTTP client for the gallery API.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: httpTimeoutFromEnv()},
		authToken: strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, nil, &resp)
	return resp, err
}

// ListImages returns the catalog, newest first.
func (c *Client) ListImages(ctx context.Context) ([]ImageResponse, error) {
	var resp []ImageResponse
	err := c.do(ctx, http.MethodGet, "/v1/images", nil, nil, &resp)
	return resp, err
}

// GetImage returns metadata for the image at position.
func (c *Client) GetImage(ctx context.Context, position int) (ImageResponse, error) {
	var resp ImageResponse
	err := c.do(ctx, http.MethodGet, imagePath(position), nil, nil, &resp)
	return resp, err
}

// Reload asks the server to reread its catalog file.
func (c *Client) Reload(ctx context.Context) (ReloadResponse, error) {
	var resp ReloadResponse
	err := c.do(ctx, http.MethodPost, "/v1/admin/reload", nil, nil, &resp)
	return resp, err
}

// UploadRequest describes one image upload.
type UploadRequest struct {
	Filename  string
	Content   io.Reader
	Source    string
	CreatedAt *time.Time
	// Raw stores the bytes as sent, skipping the resize/encode step.
	Raw bool
}

// UploadImage sends a multipart upload and returns the created entry.
func (c *Client) UploadImage(ctx context.Context, in UploadRequest) (ImageResponse, error) {
	var resp ImageResponse
	if in.Content == nil {
		return resp, fmt.Errorf("content is required")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	filename := in.Filename
	if filename == "" {
		filename = "upload"
	}
	part, err := mw.CreateFormFile("content", filename)
	if err != nil {
		return resp, err
	}
	if _, err := io.Copy(part, in.Content); err != nil {
		return resp, err
	}
	if in.Source != "" {
		if err := mw.WriteField("source", in.Source); err != nil {
			return resp, err
		}
	}
	if in.CreatedAt != nil {
		if err := mw.WriteField("created_at", in.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return resp, err
		}
	}
	if in.Raw {
		if err := mw.WriteField("raw", "true"); err != nil {
			return resp, err
		}
	}
	if err := mw.Close(); err != nil {
		return resp, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images", &body)
	if err != nil {
		return resp, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuthHeader(req)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode >= 400 {
		return resp, decodeError(httpResp)
	}
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	return resp, err
}

// GetImageContent streams the bytes of the image at position to w.
func (c *Client) GetImageContent(ctx context.Context, position int, w io.Writer) (ImageContent, error) {
	var content ImageContent
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+imagePath(position)+"/content", nil)
	if err != nil {
		return content, err
	}
	c.setAuthHeader(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return content, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return content, decodeError(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return content, err
	}
	content.MediaType = resp.Header.Get("Content-Type")
	content.Digest = strings.Trim(resp.Header.Get("ETag"), `"`)
	content.SizeBytes = n
	return content, nil
}

// DeleteImage removes the image at position. When digest is set the server
// refuses the delete if the record at position has a different digest.
func (c *Client) DeleteImage(ctx context.Context, position int, digest string) (DeleteResponse, error) {
	var resp DeleteResponse
	var query url.Values
	if digest = strings.TrimSpace(digest); digest != "" {
		query = url.Values{"digest": []string{digest}}
	}
	err := c.do(ctx, http.MethodDelete, imagePath(position), query, nil, &resp)
	return resp, err
}

func imagePath(position int) string {
	return "/v1/images/" + strconv.Itoa(position)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Code
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.Message = errResp.Error
		return apiErr
	}
	apiErr.Message = fmt.Sprintf("api error: %s", resp.Status)
	return apiErr
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
