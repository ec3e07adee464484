// Package tmpfiles uploads local videos to tmpfiles.org so Instagram can
// fetch them over a public URL.
package tmpfiles

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelpost/internal/services"
)

const uploadTimeout = 5 * time.Minute

// Client uploads files to a tmpfiles-compatible endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// New constructs an upload client.
func New(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: uploadTimeout}
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

type uploadResponse struct {
	Status string `json:"status"`
	Data   struct {
		URL string `json:"url"`
	} `json:"data"`
	Error string `json:"error"`
}

// Upload posts the file and returns the direct download URL. Files beyond
// the host's documented limit are still attempted; the host decides.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "open upload file", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "build upload request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "upload file", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "read upload response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrapf(services.ErrTransient, "upload file: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result uploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", services.Wrap(services.ErrTransient, "decode upload response", err)
	}
	if result.Status != "success" {
		detail := result.Error
		if detail == "" {
			detail = result.Status
		}
		return "", services.Wrapf(services.ErrTransient, "upload rejected: %s", detail)
	}
	if result.Data.URL == "" {
		return "", services.Wrapf(services.ErrTransient, "upload response missing url")
	}

	return DirectURL(result.Data.URL), nil
}

// DirectURL rewrites a tmpfiles page URL to its direct download form.
func DirectURL(pageURL string) string {
	return strings.Replace(pageURL, "tmpfiles.org/", "tmpfiles.org/dl/", 1)
}

// Verify checks that the hosted URL responds before handing it to Instagram.
// A verification failure is reported but the caller may choose to continue.
func (c *Client) Verify(ctx context.Context, hostedURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, hostedURL, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "build verify request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return nil
		}
	}

	// HEAD can be rejected by some hosts, retry with GET
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, hostedURL, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "build verify request", err)
	}
	getResp, err := c.httpClient.Do(getReq)
	if err != nil {
		return services.Wrap(services.ErrTransient, "verify hosted url", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		return services.Wrapf(services.ErrTransient, "hosted url returned status %d", getResp.StatusCode)
	}
	return nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
