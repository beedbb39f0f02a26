package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/jo-hoe/songshelf/internal/backend/database"
)

// ErrUnreachable marks transport-level failures, kept separate from
// application errors so the UI can show a persistent "backend down"
// state instead of a toast.
var ErrUnreachable = errors.New("cannot reach backend")

// APIError is a non-2xx response carrying the server's message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Client is an explicit API client constructed once with base URL and
// timeout; it never mutates shared library-wide defaults. Idempotent
// reads are retried with bounded exponential backoff, mutations never.
type Client struct {
	baseURL    string
	httpClient *http.Client

	maxRetries int
	retryBase  time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
		retryBase:  100 * time.Millisecond,
	}
}

type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Health reports backend reachability; it is not retried so polling
// reflects the current state promptly.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var health HealthStatus
	if err := c.getJSON(ctx, "/", &health, false); err != nil {
		return nil, err
	}
	return &health, nil
}

// ListSongs fetches the full listing, retrying transient failures.
func (c *Client) ListSongs(ctx context.Context) ([]*database.Song, error) {
	var songs []*database.Song
	if err := c.getJSON(ctx, "/songs", &songs, true); err != nil {
		return nil, err
	}
	return songs, nil
}

// UploadCSV posts the given file as multipart form data. Returns the
// server's success message.
func (c *Client) UploadCSV(ctx context.Context, filename string, content []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", "text/csv")
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/songs/upload-csv", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.doMessage(req)
}

// ImportSample triggers the bundled sample import.
func (c *Client) ImportSample(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/songs/import", nil)
	if err != nil {
		return "", err
	}
	return c.doMessage(req)
}

// PollHealth invokes the callback with the backend's reachability on
// the given interval until the context is cancelled.
func (c *Client) PollHealth(ctx context.Context, interval time.Duration, onChange func(reachable bool)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := c.Health(ctx)
			onChange(err == nil)
		}
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any, retry bool) error {
	attempts := 1
	if retry {
		attempts = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: base, 2*base, 4*base, ...
			delay := c.retryBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnreachable, err)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnreachable, readErr)
			continue
		}

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors are never retried.
			return &APIError{StatusCode: resp.StatusCode, Message: decodeMessage(data)}
		}
		if resp.StatusCode >= 500 {
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: decodeMessage(data)}
			continue
		}

		return json.Unmarshal(data, out)
	}
	return lastErr
}

func (c *Client) doMessage(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode >= 400 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: decodeMessage(data)}
	}

	var msg MessageResponse
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

func decodeMessage(data []byte) string {
	var msg MessageResponse
	if err := json.Unmarshal(data, &msg); err == nil && msg.Message != "" {
		return msg.Message
	}
	return string(data)
}
