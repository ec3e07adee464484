package uploader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelpost/internal/logging"
	"reelpost/internal/services"
	"reelpost/internal/testsupport"
	"reelpost/internal/uploader"
)

type fakeHosting struct {
	url        string
	uploadErr  error
	verifyErr  error
	uploaded   string
	verifyURLs []string
}

func (f *fakeHosting) Upload(_ context.Context, path string) (string, error) {
	f.uploaded = path
	return f.url, f.uploadErr
}

func (f *fakeHosting) Verify(_ context.Context, hostedURL string) error {
	f.verifyURLs = append(f.verifyURLs, hostedURL)
	return f.verifyErr
}

func TestExecuteUploadsLocalFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/video.mp4", "")
	item.LocalPath = "/tmp/video.mp4"

	hosting := &fakeHosting{url: "https://tmpfiles.org/dl/1/video.mp4"}
	handler := uploader.NewUploaderWithDependencies(cfg, store, logging.NewNop(), hosting)

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if hosting.uploaded != "/tmp/video.mp4" {
		t.Fatalf("expected local path upload, got %q", hosting.uploaded)
	}
	if item.PublicURL != "https://tmpfiles.org/dl/1/video.mp4" {
		t.Fatalf("public url not stored: %q", item.PublicURL)
	}
	if len(hosting.verifyURLs) != 1 {
		t.Fatalf("expected one verification call, got %d", len(hosting.verifyURLs))
	}
}

func TestExecuteSkipsWhenAlreadyPublic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/video.mp4", "")
	item.PublicURL = "https://cdn/video.mp4"

	hosting := &fakeHosting{url: "https://tmpfiles.org/dl/1/video.mp4"}
	handler := uploader.NewUploaderWithDependencies(cfg, store, logging.NewNop(), hosting)

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if hosting.uploaded != "" {
		t.Fatal("upload should be skipped for public source urls")
	}
}

func TestExecuteRequiresLocalPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/video.mp4", "")

	handler := uploader.NewUploaderWithDependencies(cfg, store, logging.NewNop(), &fakeHosting{})
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteAttemptsOversizedUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Uploader.MaxUploadMiB = 1
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/big.mp4", "")

	path := filepath.Join(t.TempDir(), "big.mp4")
	if err := os.WriteFile(path, make([]byte, 2<<20), 0o644); err != nil {
		t.Fatalf("write oversized file: %v", err)
	}
	item.LocalPath = path

	hosting := &fakeHosting{url: "https://tmpfiles.org/dl/3/big.mp4"}
	handler := uploader.NewUploaderWithDependencies(cfg, store, logging.NewNop(), hosting)

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("oversized files should still be attempted: %v", err)
	}
	if hosting.uploaded != path {
		t.Fatalf("expected upload attempt for %q, got %q", path, hosting.uploaded)
	}
}

func TestExecuteContinuesOnVerifyFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/video.mp4", "")
	item.LocalPath = "/tmp/video.mp4"

	hosting := &fakeHosting{
		url:       "https://tmpfiles.org/dl/2/video.mp4",
		verifyErr: services.Wrapf(services.ErrTransient, "head rejected"),
	}
	handler := uploader.NewUploaderWithDependencies(cfg, store, logging.NewNop(), hosting)

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("verification failures should not fail the stage: %v", err)
	}
	if item.PublicURL != "https://tmpfiles.org/dl/2/video.mp4" {
		t.Fatalf("public url missing: %q", item.PublicURL)
	}
}
