package preflight

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"reelpost/internal/config"
	"reelpost/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckInstagram verifies the Graph API token by fetching the account node.
// baseURL overrides the Graph endpoint and is empty outside tests.
func CheckInstagram(ctx context.Context, baseURL string, cfg config.Instagram) Result {
	const name = "Instagram Graph API"

	if strings.TrimSpace(cfg.AccessToken) == "" {
		return Result{Name: name, Detail: "missing access token"}
	}
	if strings.TrimSpace(cfg.AccountID) == "" {
		return Result{Name: name, Detail: "missing account id"}
	}

	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}
	version := cfg.GraphAPIVersion
	if version == "" {
		version = "v18.0"
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/%s?fields=id&access_token=%s",
		strings.TrimRight(baseURL, "/"), version, cfg.AccountID, url.QueryEscape(cfg.AccessToken))
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("token check failed (%v)", err)}
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("token check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "token valid"}
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "token check failed (invalid token or account id)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("token check failed (%d)", resp.StatusCode)}
	}
}

// CheckGemini verifies that caption generation is configured. The key is not
// exercised against the API here because caption calls are billed per request.
func CheckGemini(cfg config.Gemini) Result {
	const name = "Gemini"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}
	return Result{Name: name, Passed: true, Detail: "api key configured"}
}

// CheckSheetCredentials verifies the service account file exists and is a
// regular file. A missing file is reported but does not block the daemon;
// the sheet poller stays dormant until it appears.
func CheckSheetCredentials(cfg config.Sheets) Result {
	const name = "Sheets credentials"

	path := strings.TrimSpace(cfg.CredentialsPath)
	if path == "" {
		return Result{Name: name, Detail: "missing credentials path"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (not found, ingestion dormant)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckInstagramCookies verifies the session cookie file used for
// Instagram-hosted source downloads. A missing file only blocks those
// sources, so this check never fails the run.
func CheckInstagramCookies(cfg config.Instagram) Result {
	const name = "Instagram cookies"

	path := strings.TrimSpace(cfg.CookiesPath)
	if path == "" {
		return Result{Name: name, Detail: "no cookies path configured (instagram sources unavailable)"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (not found, instagram sources unavailable)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates the external binaries the pipeline shells out
// to. Both the daemon and the CLI status command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:     "FFmpeg",
			Binary:   "ffmpeg",
			Optional: true,
			Purpose:  "re-encodes downloads for Instagram compatibility",
		},
	}
	return deps.CheckBinaries(requirements)
}
