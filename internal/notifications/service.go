package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"cargotag/internal/config"
)

const userAgent = "cargotag/0.1"

// Service defines the notification surface.
type Service interface {
	NotifyDelivered(ctx context.Context, cargoID, location string, sizeBytes int) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: cfg.Notifications.RequestTimeout()},
	}
}

// Enabled reports whether svc actually sends anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type notice struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyDelivered(ctx context.Context, cargoID, location string, sizeBytes int) error {
	cargoID = strings.TrimSpace(cargoID)
	if cargoID == "" {
		cargoID = "(no id)"
	}
	message := fmt.Sprintf("📦 %s tagged: %s (%d bytes)", cargoID, filepath.Base(location), sizeBytes)
	return n.send(ctx, notice{
		title:   "cargotag - Delivered",
		message: message,
		tags:    []string{"cargotag", "delivered"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, label string) error {
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	message := "❌ Error: " + reason
	if label = strings.TrimSpace(label); label != "" {
		message = fmt.Sprintf("❌ Error with %s: %s", label, reason)
	}
	return n.send(ctx, notice{
		title:    "cargotag - Error",
		message:  message,
		tags:     []string{"cargotag", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, notice{
		title:    "cargotag - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"cargotag", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data notice) error {
	if n == nil || n.client == nil {
		return nil
	}
	req, err := data.request(ctx, n.endpoint)
	if err != nil {
		return err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish to ntfy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("ntfy rejected notice (%d): %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (d notice) request(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(d.message))
	if err != nil {
		return nil, fmt.Errorf("build ntfy request: %w", err)
	}
	headers := map[string]string{
		"User-Agent":   userAgent,
		"Content-Type": "text/plain; charset=utf-8",
		"Title":        d.title,
		"Tags":         strings.Join(d.tags, ","),
		"Priority":     d.priority,
	}
	for key, value := range headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
	return req, nil
}

type noopService struct{}

func (noopService) NotifyDelivered(context.Context, string, string, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error          { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
