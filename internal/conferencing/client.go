// Package conferencing talks to the Zoom API: token exchange and recording lookup.
package conferencing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/recording-ingest/internal/models"
)

// FileTypePrimaryVideo is the recording file type carrying the main video track.
const FileTypePrimaryVideo = "MP4"

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 8 << 10

// ErrRecordingNotFound means the session has no primary video recording (yet).
var ErrRecordingNotFound = errors.New("recording not found")

// UpstreamError is a non-2xx response from the conferencing platform.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("conferencing upstream status %d: %s", e.StatusCode, e.Body)
}

// RecordingFile is one file of a Zoom cloud recording.
type RecordingFile struct {
	ID            string `json:"id"`
	MeetingID     string `json:"meeting_id"`
	FileType      string `json:"file_type"`
	FileSize      int64  `json:"file_size"`
	DownloadURL   string `json:"download_url"`
	Status        string `json:"status"`
	RecordingType string `json:"recording_type"`
}

type recordingsResponse struct {
	UUID           string          `json:"uuid"`
	RecordingFiles []RecordingFile `json:"recording_files"`
}

// Client queries the recordings API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a conferencing API client. timeout bounds each request.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient, timeout: timeout, logger: logger}
}

// Locate fetches the session's recordings and returns the primary video asset.
func (c *Client) Locate(ctx context.Context, token, sessionID string) (*models.RecordingAsset, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	endpoint := fmt.Sprintf("%s/meetings/%s/recordings", c.baseURL, EncodeSessionID(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get recordings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrRecordingNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out recordingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode recordings: %w", err)
	}
	asset, ok := SelectPrimary(out.RecordingFiles, sessionID)
	if !ok {
		c.logger.Debug("no primary video recording", zap.String("session_id", sessionID), zap.Int("files", len(out.RecordingFiles)))
		return nil, ErrRecordingNotFound
	}
	return asset, nil
}

// SelectPrimary picks the largest MP4 file. The first file wins a size tie.
func SelectPrimary(files []RecordingFile, sessionID string) (*models.RecordingAsset, bool) {
	var best *RecordingFile
	for i := range files {
		f := &files[i]
		if !strings.EqualFold(f.FileType, FileTypePrimaryVideo) {
			continue
		}
		if best == nil || f.FileSize > best.FileSize {
			best = f
		}
	}
	if best == nil {
		return nil, false
	}
	return &models.RecordingAsset{
		ID:            best.ID,
		FileType:      best.FileType,
		FileSizeBytes: best.FileSize,
		DownloadURL:   best.DownloadURL,
		SessionID:     sessionID,
	}, true
}

// EncodeSessionID escapes a meeting id or UUID for use in a path. Zoom needs
// UUIDs that start with "/" or contain "//" encoded twice.
func EncodeSessionID(id string) string {
	escaped := url.PathEscape(id)
	if strings.HasPrefix(id, "/") || strings.Contains(id, "//") {
		escaped = url.PathEscape(escaped)
	}
	return escaped
}

// AuthenticatedDownloadURL appends the bearer token as the access_token query
// parameter so a third party can fetch the file directly.
func AuthenticatedDownloadURL(downloadURL, token string) (string, error) {
	u, err := url.Parse(downloadURL)
	if err != nil {
		return "", fmt.Errorf("parse download url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
