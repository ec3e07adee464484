// Package media probes remote video URLs, downloads them, and re-encodes
// downloads into an Instagram-compatible H.264/AAC container.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reelpost/internal/services"
)

const (
	probeTimeout    = 15 * time.Second
	downloadTimeout = 10 * time.Minute

	probeUserAgent = "Mozilla/5.0 (compatible; ReelpostBot/1.0)"
)

// ProbeURL reports whether the remote URL serves content Instagram can fetch
// directly. Redirect and partial-content responses count as reachable.
func ProbeURL(ctx context.Context, client *http.Client, rawURL string) bool {
	if client == nil {
		client = &http.Client{}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	head, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	head.Header.Set("User-Agent", probeUserAgent)
	head.Header.Set("Range", "bytes=0-1024")

	resp, err := client.Do(head)
	if err != nil {
		return false
	}
	resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent,
		http.StatusMovedPermanently, http.StatusFound,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return false
	}

	get, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	get.Header.Set("User-Agent", probeUserAgent)
	get.Header.Set("Range", "bytes=0-1024")

	getResp, err := client.Do(get)
	if err != nil {
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(getResp.Body, 2048))
		getResp.Body.Close()
	}()

	return getResp.StatusCode == http.StatusOK || getResp.StatusCode == http.StatusPartialContent
}

// Filename derives a local file name from a video URL, dropping query
// parameters and falling back to a timestamped name.
func Filename(rawURL string) string {
	trimmed := rawURL
	if idx := strings.IndexByte(trimmed, '?'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	name := trimmed
	if idx := strings.LastIndexByte(trimmed, '/'); idx >= 0 {
		name = trimmed[idx+1:]
	}
	if name == "" || !strings.Contains(name, ".") {
		return fmt.Sprintf("video_%d.mp4", time.Now().Unix())
	}
	return name
}

// Download streams the video into destDir and returns the local path.
// Cookies, when provided, are attached to the request for hosts that gate
// downloads behind a login session.
func Download(ctx context.Context, client *http.Client, rawURL, destDir string, cookies map[string]string) (string, error) {
	if client == nil {
		client = &http.Client{}
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "ensure download directory", err)
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "build download request", err)
	}
	req.Header.Set("User-Agent", probeUserAgent)
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "download video", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", services.Wrapf(services.ErrTransient, "download video: unexpected status %d", resp.StatusCode)
	}

	destPath := filepath.Join(destDir, Filename(rawURL))
	tmpPath := destPath + ".part"
	file, err := os.Create(tmpPath)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "create download file", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrTransient, "write download", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrConfiguration, "close download file", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrConfiguration, "finalize download", err)
	}
	return destPath, nil
}

// ErrEncoderMissing marks an unavailable ffmpeg binary. Callers may continue
// with the original file.
var ErrEncoderMissing = fmt.Errorf("%w: ffmpeg not found on PATH", services.ErrExternalTool)

// Reencode rewrites the video as H.264 with AAC audio and a faststart moov
// atom, replacing the input file in place.
func Reencode(ctx context.Context, ffmpegBin, inputPath string) error {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpegBin); err != nil {
		return ErrEncoderMissing
	}

	outputPath := reencodeOutputPath(inputPath)
	cmd := exec.CommandContext(ctx, ffmpegBin,
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(outputPath)
		return services.Wrapf(services.ErrExternalTool, "ffmpeg re-encode failed: %v: %s", err, tail(string(output), 400))
	}

	if err := os.Remove(inputPath); err != nil {
		_ = os.Remove(outputPath)
		return services.Wrap(services.ErrExternalTool, "replace original video", err)
	}
	if err := os.Rename(outputPath, inputPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "rename re-encoded video", err)
	}
	return nil
}

func reencodeOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_reencoded" + ext
}

func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
