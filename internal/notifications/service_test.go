package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cargotag/internal/config"
	"cargotag/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func ntfyServer(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("rejected"))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), seen...)
	}
}

func configFor(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(configFor(""))
	if notifications.Enabled(svc) {
		t.Fatalf("expected noop service")
	}
	if err := svc.NotifyDelivered(context.Background(), "X1", "/out/cargo_1.jpg", 10); err != nil {
		t.Fatalf("noop notifier returned %v", err)
	}
}

func TestNtfyServiceFormatsNotices(t *testing.T) {
	srv, seen := ntfyServer(t, http.StatusOK)
	svc := notifications.NewService(configFor(srv.URL + "/cargo"))
	if !notifications.Enabled(svc) {
		t.Fatalf("expected ntfy service")
	}
	ctx := context.Background()
	if err := svc.NotifyDelivered(ctx, "X1", "/out/cargo_1700000000000.jpg", 48213); err != nil {
		t.Fatalf("NotifyDelivered: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("photo unavailable: no photo"), "watch"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}

	got := seen()
	if len(got) != 3 {
		t.Fatalf("expected 3 notices, got %d", len(got))
	}
	if got[0].title != "cargotag - Delivered" || got[0].tags != "cargotag,delivered" || got[0].priority != "" {
		t.Fatalf("unexpected delivered headers %+v", got[0])
	}
	if got[0].body != "📦 X1 tagged: cargo_1700000000000.jpg (48213 bytes)" {
		t.Fatalf("unexpected delivered body %q", got[0].body)
	}
	if got[1].priority != "high" || !strings.Contains(got[1].body, "with watch: photo unavailable") {
		t.Fatalf("unexpected error notice %+v", got[1])
	}
	if got[2].priority != "low" {
		t.Fatalf("unexpected test notice %+v", got[2])
	}
}

func TestNtfyServiceReportsRejection(t *testing.T) {
	srv, _ := ntfyServer(t, http.StatusForbidden)
	svc := notifications.NewService(configFor(srv.URL))
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "rejected") {
		t.Fatalf("expected 403 error with body, got %v", err)
	}
}
