package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelpost/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckInstagram_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "good-token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckInstagram(context.Background(), srv.URL, config.Instagram{
		AccessToken: "good-token",
		AccountID:   "1234567890",
	})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckInstagram_BadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	result := CheckInstagram(context.Background(), srv.URL, config.Instagram{
		AccessToken: "expired",
		AccountID:   "1234567890",
	})
	if result.Passed {
		t.Fatal("expected failure for rejected token")
	}
}

func TestCheckInstagram_MissingCredentials(t *testing.T) {
	result := CheckInstagram(context.Background(), "", config.Instagram{})
	if result.Passed {
		t.Fatal("expected failure without credentials")
	}
}

func TestCheckGemini(t *testing.T) {
	if r := CheckGemini(config.Gemini{}); r.Passed {
		t.Fatal("expected failure without api key")
	}
	if r := CheckGemini(config.Gemini{APIKey: "key"}); !r.Passed {
		t.Fatalf("expected pass, got: %s", r.Detail)
	}
}

func TestCheckSheetCredentials(t *testing.T) {
	missing := CheckSheetCredentials(config.Sheets{CredentialsPath: filepath.Join(t.TempDir(), "creds.json")})
	if missing.Passed {
		t.Fatal("expected failure for missing credentials file")
	}

	path := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	present := CheckSheetCredentials(config.Sheets{CredentialsPath: path})
	if !present.Passed {
		t.Fatalf("expected pass, got: %s", present.Detail)
	}
}

func TestRunAllCoversConfiguredFeatures(t *testing.T) {
	base := t.TempDir()
	staging := filepath.Join(base, "staging")
	logs := filepath.Join(base, "logs")
	for _, dir := range []string{staging, logs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Paths.StagingDir = staging
	cfg.Paths.LogDir = logs
	cfg.Sheets.Enabled = true
	cfg.Sheets.CredentialsPath = filepath.Join(base, "creds.json")

	results := RunAll(context.Background(), &cfg)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d: %#v", len(results), results)
	}
}

func TestCheckInstagramCookiesNeverBlocks(t *testing.T) {
	missing := CheckInstagramCookies(config.Instagram{CookiesPath: filepath.Join(t.TempDir(), "absent.json")})
	if missing.Passed {
		t.Fatal("missing cookie file should not pass")
	}
	if !strings.Contains(missing.Detail, "not found") {
		t.Fatalf("expected dormant detail, got %q", missing.Detail)
	}

	unset := CheckInstagramCookies(config.Instagram{})
	if unset.Passed || unset.Detail == "" {
		t.Fatalf("unset path should warn, got %#v", unset)
	}

	path := filepath.Join(t.TempDir(), "cookie-insta.json")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	present := CheckInstagramCookies(config.Instagram{CookiesPath: path})
	if !present.Passed {
		t.Fatalf("existing cookie file should pass, got %#v", present)
	}
}
