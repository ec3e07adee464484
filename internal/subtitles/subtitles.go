// Package subtitles downloads SRT files and extracts their dialogue text.
package subtitles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"reelpost/internal/services"
)

const (
	fetchTimeout = 30 * time.Second
	maxSRTBytes  = 4 << 20
)

// Fetch downloads the SRT document at url and returns its raw contents.
func Fetch(ctx context.Context, client *http.Client, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", services.Wrapf(services.ErrValidation, "subtitle url is empty")
	}
	if client == nil {
		client = &http.Client{}
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "build subtitle request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "fetch subtitles", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", services.Wrapf(services.ErrTransient, "fetch subtitles: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSRTBytes))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "read subtitles", err)
	}
	return string(body), nil
}

// Text extracts the dialogue from an SRT document, dropping cue indexes and
// timing lines, and returns NFC-normalized plain text.
func Text(raw string) (string, error) {
	cleaned := strings.TrimPrefix(raw, "\uFEFF")
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")

	var lines []string
	for _, block := range strings.Split(cleaned, "\n\n") {
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if isCueIndex(line) || isTiming(line) {
				continue
			}
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return "", services.Wrapf(services.ErrValidation, "subtitle document has no dialogue")
	}

	return norm.NFC.String(strings.Join(lines, "\n")), nil
}

func isCueIndex(line string) bool {
	_, err := strconv.Atoi(line)
	return err == nil
}

func isTiming(line string) bool {
	return strings.Contains(line, "-->")
}

// Summary trims text to at most limit runes, appending an ellipsis when cut.
func Summary(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return fmt.Sprintf("%s…", strings.TrimSpace(string(runes[:limit-1])))
}
