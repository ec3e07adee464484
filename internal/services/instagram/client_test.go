package instagram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reelpost/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New("token", "9999", "v18.0",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithPollInterval(time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "123", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing token, got %v", err)
	}
	if _, err := New("token", "", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing account, got %v", err)
	}
}

func TestCreateContainerSendsReelsPayload(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v18.0/9999/media" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("media_type") != "REELS" {
			t.Errorf("expected REELS media type, got %q", r.PostForm.Get("media_type"))
		}
		if r.PostForm.Get("video_url") != "https://host/video.mp4" {
			t.Errorf("unexpected video_url %q", r.PostForm.Get("video_url"))
		}
		if r.PostForm.Get("caption") != "hello" {
			t.Errorf("unexpected caption %q", r.PostForm.Get("caption"))
		}
		_, _ = w.Write([]byte(`{"id":"container-1"}`))
	}))

	id, err := client.CreateContainer(context.Background(), "https://host/video.mp4", "hello")
	if err != nil {
		t.Fatalf("CreateContainer failed: %v", err)
	}
	if id != "container-1" {
		t.Fatalf("unexpected creation id %q", id)
	}
}

func TestCreateContainerSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid video","code":352,"error_subcode":2207026}}`))
	}))

	_, err := client.CreateContainer(context.Background(), "https://host/video.mp4", "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid video") || !strings.Contains(err.Error(), "2207026") {
		t.Fatalf("error should carry api message and subcode: %v", err)
	}
}

func TestWaitForProcessingFinishes(t *testing.T) {
	var polls atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fields") != "status_code" {
			t.Errorf("expected status_code fields, got %q", r.URL.Query().Get("fields"))
		}
		if polls.Add(1) < 3 {
			_, _ = w.Write([]byte(`{"id":"c1","status_code":"IN_PROGRESS"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"c1","status_code":"FINISHED"}`))
	}))

	if err := client.WaitForProcessing(context.Background(), "c1"); err != nil {
		t.Fatalf("WaitForProcessing failed: %v", err)
	}
	if polls.Load() != 3 {
		t.Fatalf("expected 3 polls, got %d", polls.Load())
	}
}

func TestWaitForProcessingReportsError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"c1","status_code":"ERROR"}`))
	}))

	err := client.WaitForProcessing(context.Background(), "c1")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for failed processing, got %v", err)
	}
}

func TestWaitForProcessingTimesOut(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"c1","status_code":"IN_PROGRESS"}`))
	}))

	err := client.WaitForProcessing(context.Background(), "c1")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestPublishReturnsPostID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v18.0/9999/media_publish" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("creation_id") != "container-1" {
			t.Errorf("unexpected creation_id %q", r.PostForm.Get("creation_id"))
		}
		_, _ = w.Write([]byte(`{"id":"post-55"}`))
	}))

	postID, err := client.Publish(context.Background(), "container-1")
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if postID != "post-55" {
		t.Fatalf("unexpected post id %q", postID)
	}
}
