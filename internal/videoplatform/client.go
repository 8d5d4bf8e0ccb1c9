// Package videoplatform is a minimal Bunny Stream client: create a video
// object, then ask Bunny to fetch its source from a URL.
package videoplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxErrorBody = 8 << 10

// APIError is a non-2xx response from the video platform.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("video platform %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client calls the Bunny Stream API with a per-library access key.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a video platform client. timeout bounds each request.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient, timeout: timeout, logger: logger}
}

type createVideoRequest struct {
	Title string `json:"title"`
}

type createVideoResponse struct {
	GUID string `json:"guid"`
}

type fetchVideoRequest struct {
	URL string `json:"url"`
}

// CreateVideo registers an empty video object and returns its guid.
func (c *Client) CreateVideo(ctx context.Context, libraryID, apiKey, title string) (string, error) {
	endpoint := fmt.Sprintf("%s/library/%s/videos", c.baseURL, libraryID)
	var out createVideoResponse
	if err := c.post(ctx, "create video", endpoint, apiKey, createVideoRequest{Title: title}, &out); err != nil {
		return "", err
	}
	if out.GUID == "" {
		return "", fmt.Errorf("create video: response has no guid")
	}
	c.logger.Debug("video object created", zap.String("video_guid", out.GUID), zap.String("title", title))
	return out.GUID, nil
}

// FetchVideo asks the platform to pull the video source from sourceURL.
func (c *Client) FetchVideo(ctx context.Context, libraryID, apiKey, videoGUID, sourceURL string) error {
	endpoint := fmt.Sprintf("%s/library/%s/videos/%s/fetch", c.baseURL, libraryID, videoGUID)
	return c.post(ctx, "fetch video", endpoint, apiKey, fetchVideoRequest{URL: sourceURL}, nil)
}

func (c *Client) post(ctx context.Context, op, endpoint, apiKey string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("AccessKey", apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
