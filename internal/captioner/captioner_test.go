package captioner_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reelpost/internal/captioner"
	"reelpost/internal/logging"
	"reelpost/internal/services"
	"reelpost/internal/testsupport"
)

type fakeCaptions struct {
	caption string
	err     error
	gotText string
}

func (f *fakeCaptions) GenerateCaption(_ context.Context, text string) (string, error) {
	f.gotText = text
	return f.caption, f.err
}

const srtBody = "1\n00:00:01,000 --> 00:00:02,000\nHello world\n\n2\n00:00:02,500 --> 00:00:04,000\nSecond cue\n"

func TestExecuteGeneratesCaption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(srtBody))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/video.mp4", srv.URL)

	captions := &fakeCaptions{caption: "generated caption #tag"}
	handler := captioner.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), captions, srv.Client())

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if item.Caption != "generated caption #tag" {
		t.Fatalf("caption not stored: %q", item.Caption)
	}
	if !strings.Contains(captions.gotText, "Hello world") || strings.Contains(captions.gotText, "-->") {
		t.Fatalf("caption service should receive dialogue only, got %q", captions.gotText)
	}
}

func TestExecuteRequiresSubtitleURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/video.mp4", "")

	handler := captioner.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), &fakeCaptions{}, nil)
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecutePropagatesCaptionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(srtBody))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/video.mp4", srv.URL)

	captions := &fakeCaptions{err: services.Wrapf(services.ErrTransient, "model overloaded")}
	handler := captioner.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), captions, srv.Client())

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestHealthCheckReportsMissingKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Gemini.APIKey = ""
	store := testsupport.MustOpenStore(t, cfg)

	handler := captioner.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), &fakeCaptions{}, nil)
	health := handler.HealthCheck(context.Background())
	if health.Ready {
		t.Fatalf("expected unhealthy stage, got %#v", health)
	}
}
