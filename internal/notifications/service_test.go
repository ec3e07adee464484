package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reelpost/internal/notifications"
	"reelpost/internal/testsupport"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, sink *[]captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*sink = append(*sink, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewServiceReturnsNoopWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""

	svc := notifications.NewService(cfg)
	if err := svc.NotifyPublished(context.Background(), "post-1", "caption"); err != nil {
		t.Fatalf("noop service should never fail: %v", err)
	}
}

func TestNotifyPublishedSendsHighPriority(t *testing.T) {
	var sink []captured
	srv := newNtfyServer(t, &sink)

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.Published = true

	svc := notifications.NewService(cfg)
	if err := svc.NotifyPublished(context.Background(), "post-9", "first line\nsecond line"); err != nil {
		t.Fatalf("NotifyPublished failed: %v", err)
	}

	if len(sink) != 1 {
		t.Fatalf("expected one notification, got %d", len(sink))
	}
	got := sink[0]
	if got.priority != "high" {
		t.Errorf("expected high priority, got %q", got.priority)
	}
	if !strings.Contains(got.body, "post-9") || !strings.Contains(got.body, "first line") {
		t.Errorf("unexpected body %q", got.body)
	}
	if strings.Contains(got.body, "second line") {
		t.Errorf("caption should be trimmed after first line: %q", got.body)
	}
}

func TestCategoryTogglesSuppressSends(t *testing.T) {
	var sink []captured
	srv := newNtfyServer(t, &sink)

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.Errors = false
	cfg.Notifications.Queue = false

	svc := notifications.NewService(cfg)
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "publishing"); err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}
	if err := svc.NotifyQueued(context.Background(), "https://cdn/v.mp4", 2); err != nil {
		t.Fatalf("NotifyQueued failed: %v", err)
	}
	if len(sink) != 0 {
		t.Fatalf("disabled categories should not send, got %d", len(sink))
	}
}

func TestNotifySurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = srv.URL

	svc := notifications.NewService(cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for rejected notification")
	}
}
