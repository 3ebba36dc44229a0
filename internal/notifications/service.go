package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"uploadq/internal/config"
)

const userAgent = "uploadq/0.1.0"

// Service defines the notification surface exposed to the upload CLI.
type Service interface {
	NotifyBatchStarted(ctx context.Context, count int) error
	NotifyBatchCompleted(ctx context.Context, completed, failed int, duration time.Duration) error
	NotifyUploadFailed(ctx context.Context, name string, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		minItems: cfg.BatchMinItems,
		errorsOn: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	minItems int
	errorsOn bool
}

func (n *ntfyService) NotifyBatchStarted(ctx context.Context, count int) error {
	if count < n.minItems {
		return nil
	}
	data := payload{
		title:   "Uploadq - Batch Started",
		message: fmt.Sprintf("Uploading %d files", count),
		tags:    []string{"uploadq", "batch", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, completed, failed int, duration time.Duration) error {
	if completed+failed < n.minItems {
		return nil
	}
	data := payload{
		title:   "Uploadq - Batch Complete",
		message: fmt.Sprintf("Uploaded %d files, %d failed in %s", completed, failed, duration.Round(time.Second)),
		tags:    []string{"uploadq", "batch", "completed"},
	}
	if failed > 0 {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadFailed(ctx context.Context, name string, cause error) error {
	if !n.errorsOn {
		return nil
	}
	message := fmt.Sprintf("Upload failed: %s", strings.TrimSpace(name))
	if cause != nil {
		message = fmt.Sprintf("%s (%s)", message, cause)
	}
	data := payload{
		title:    "Uploadq - Upload Failed",
		message:  message,
		tags:     []string{"uploadq", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "Uploadq - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"uploadq", "test"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("X-Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("X-Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("X-Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected with status %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyBatchStarted(context.Context, int) error { return nil }

func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }

func (noopService) NotifyUploadFailed(context.Context, string, error) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
