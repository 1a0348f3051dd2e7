// Package render provides Renderer implementations for the export
// runner: an HTTP client for a render service and a local stub used
// when no service is configured.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cutroom/cutroom-agent/internal/export"
	"github.com/cutroom/cutroom-agent/internal/logging"
)

const (
	requestTimeout = 30 * time.Second
	pollInterval   = 2 * time.Second
)

// HTTPClient submits render manifests to a render service and polls
// until the job finishes. Service outages surface as retryable errors
// so the export runner requeues instead of failing the job.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
	poll    time.Duration
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logging.WithComponent(logger, "render-client"),
		poll:    pollInterval,
	}
}

type submitResponse struct {
	RenderID string `json:"render_id"`
}

type statusResponse struct {
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	OutputRef string `json:"output_ref"`
	Error     string `json:"error"`
}

func (c *HTTPClient) Render(ctx context.Context, manifest export.Manifest, onProgress func(int)) (string, error) {
	renderID, err := c.submit(ctx, manifest)
	if err != nil {
		return "", err
	}
	c.logger.Info("render submitted", "job_id", manifest.JobID, "render_id", renderID)

	lastProgress := -1
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.poll):
		}

		status, err := c.status(ctx, renderID)
		if err != nil {
			return "", err
		}

		if status.Progress != lastProgress && onProgress != nil {
			onProgress(status.Progress)
			lastProgress = status.Progress
		}

		switch status.Status {
		case "completed":
			return status.OutputRef, nil
		case "failed":
			return "", fmt.Errorf("render service reported failure: %s", status.Error)
		}
	}
}

func (c *HTTPClient) submit(ctx context.Context, manifest export.Manifest) (string, error) {
	body, err := json.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/v1/renders", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.RenderID == "" {
		return "", fmt.Errorf("render service returned no render id")
	}
	return resp.RenderID, nil
}

func (c *HTTPClient) status(ctx context.Context, renderID string) (*statusResponse, error) {
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/renders/"+renderID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &export.RetryableError{Err: fmt.Errorf("render service unreachable: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &export.RetryableError{Err: fmt.Errorf("render service error: %s", resp.Status)}
	}
	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("render request rejected: %s: %s", resp.Status, payload)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode render response: %w", err)
	}
	return nil
}
