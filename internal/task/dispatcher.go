package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// SyncHandler abstracts the external service that performs the actual
// per-platform activity fetch. The queue only cares about success or a typed
// failure; payload shapes are the handler's business.
type SyncHandler interface {
	// Sync executes the fetch for one task. A nil return means the handler
	// accepted and persisted the activity data.
	Sync(ctx context.Context, t *Task) error
}

// SyncError is returned when the sync handler rejects a task. Its message is
// what ends up in the task row's error column.
type SyncError struct {
	StatusCode int
	Message    string
}

func (e *SyncError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("sync handler returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sync handler call failed: %s", e.Message)
}

// syncRequest is the JSON body sent to the sync handler.
type syncRequest struct {
	Date     string `json:"date"`
	UserID   string `json:"userId"`
	Platform string `json:"platform,omitempty"`
}

// SyncClientConfig holds the settings needed to reach the sync handlers.
type SyncClientConfig struct {
	// BaseURL is the root of the sync handler service, without trailing slash.
	BaseURL string

	// SharedSecret authenticates the queue to the handlers as a bearer token.
	SharedSecret string

	// Timeout bounds each handler call so one slow external API cannot stall
	// a whole batch. Zero means DefaultSyncTimeout.
	Timeout time.Duration
}

// DefaultSyncTimeout is applied when SyncClientConfig.Timeout is zero.
const DefaultSyncTimeout = 30 * time.Second

// SyncClient dispatches tasks to the external sync handlers over HTTP.
// It implements SyncHandler.
type SyncClient struct {
	baseURL      string
	sharedSecret string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewSyncClient validates the configuration and builds a client.
// Missing secret or base URL is a configuration error, surfaced immediately
// rather than being discovered task by task at dispatch time.
func NewSyncClient(cfg SyncClientConfig, logger *slog.Logger) (*SyncClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("sync handler base URL is not configured")
	}
	if cfg.SharedSecret == "" {
		return nil, fmt.Errorf("sync handler shared secret is not configured")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultSyncTimeout
	}

	return &SyncClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		sharedSecret: cfg.SharedSecret,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}, nil
}

// Sync calls the handler for the task's platform. GitHub has a dedicated
// endpoint; the remaining platforms share the generic endpoint with the
// platform named in the body. The mapping is resolved here, once, so nothing
// downstream handles untyped platform strings.
func (c *SyncClient) Sync(ctx context.Context, t *Task) error {
	endpoint, body := c.resolveRequest(t)

	payload, err := json.Marshal(body)
	if err != nil {
		return &SyncError{Message: fmt.Sprintf("failed to encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &SyncError{Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.sharedSecret)

	c.logger.Debug("dispatching sync task",
		"task_id", t.ID,
		"platform", t.Platform,
		"endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &SyncError{Message: err.Error()}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close sync response body", "error", closeErr)
		}
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// The success payload is opaque to the queue; drain it so the
		// connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}

	return &SyncError{
		StatusCode: resp.StatusCode,
		Message:    readErrorBody(resp.Body),
	}
}

// resolveRequest maps the task's platform onto its endpoint and request body.
func (c *SyncClient) resolveRequest(t *Task) (string, syncRequest) {
	body := syncRequest{
		Date:   t.SyncDate.Format(SyncDateLayout),
		UserID: t.UserID.String(),
	}

	switch t.Platform {
	case PlatformGitHub:
		return c.baseURL + "/sync/github", body
	default:
		body.Platform = string(t.Platform)
		return c.baseURL + "/sync", body
	}
}

// readErrorBody extracts a short diagnostic from a failed response.
func readErrorBody(r io.Reader) string {
	const maxErrorBody = 1024

	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return "no response body"
	}
	return string(bytes.TrimSpace(data))
}
