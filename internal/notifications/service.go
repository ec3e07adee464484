// Package notifications delivers workflow events to ntfy topics.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelpost/internal/config"
)

const userAgent = "Reelpost-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyQueued(ctx context.Context, videoURL string, row int64) error
	NotifyPublished(ctx context.Context, postID, caption string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
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
		cfg:      cfg,
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
	cfg      *config.Config
}

func (n *ntfyService) NotifyQueued(ctx context.Context, videoURL string, row int64) error {
	if n.cfg != nil && !n.cfg.Notifications.Queue {
		return nil
	}
	message := fmt.Sprintf("Queued video: %s", strings.TrimSpace(videoURL))
	if row > 0 {
		message = fmt.Sprintf("%s (sheet row %d)", message, row)
	}
	data := payload{
		title:   "Reelpost - Queued",
		message: message,
		tags:    []string{"reelpost", "queue"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublished(ctx context.Context, postID, caption string) error {
	if n.cfg != nil && !n.cfg.Notifications.Published {
		return nil
	}
	message := fmt.Sprintf("Published post %s", strings.TrimSpace(postID))
	if summary := firstLine(caption); summary != "" {
		message = fmt.Sprintf("%s\n%s", message, summary)
	}
	data := payload{
		title:    "Reelpost - Published",
		message:  message,
		tags:     []string{"reelpost", "instagram", "published"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if n.cfg != nil && !n.cfg.Notifications.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reelpost - Error",
		message:  builder.String(),
		tags:     []string{"reelpost", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelpost - Test",
		message:  "Notification system test",
		tags:     []string{"reelpost", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return s
}

type noopService struct{}

func (noopService) NotifyQueued(context.Context, string, int64) error   { return nil }
func (noopService) NotifyPublished(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error    { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }

// NewNoop returns a Service that drops all notifications (used in tests).
func NewNoop() Service {
	return noopService{}
}
