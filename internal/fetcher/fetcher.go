// Package fetcher makes the video available for publishing, either by
// confirming the source URL is directly reachable or by downloading and
// re-encoding a local copy.
package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/media"
	"reelpost/internal/queue"
	"reelpost/internal/services"
	"reelpost/internal/stage"
)

// Fetcher downloads queued videos into the staging directory.
type Fetcher struct {
	store      *queue.Store
	cfg        *config.Config
	logger     *slog.Logger
	httpClient *http.Client
}

// NewFetcher constructs the fetch stage handler.
func NewFetcher(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Fetcher {
	return NewFetcherWithDependencies(cfg, store, logger, nil)
}

// NewFetcherWithDependencies allows injecting an HTTP client (used in tests).
func NewFetcherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, httpClient *http.Client) *Fetcher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "fetcher"))
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Fetcher{store: store, cfg: cfg, logger: stageLogger, httpClient: httpClient}
}

func (f *Fetcher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)
	item.InitProgress("Fetching", "Checking video source")
	logger.Info("starting video fetch", logging.String(logging.FieldVideoURL, item.VideoURL))
	return nil
}

func (f *Fetcher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)

	// A source URL Instagram can read directly needs no local copy.
	if media.ProbeURL(ctx, f.httpClient, item.VideoURL) {
		item.PublicURL = item.VideoURL
		item.LocalPath = ""
		item.SetProgress("Fetching", "Source URL directly accessible", 100)
		logger.Info("using source url directly")
		return nil
	}

	logger.Info("source url not directly accessible, downloading")
	item.SetProgress("Fetching", "Downloading video", 25)
	if err := f.store.Update(ctx, item); err != nil {
		logger.Warn("failed to persist fetch progress", logging.Error(err))
	}

	cookies, err := f.sourceCookies(item.VideoURL)
	if err != nil {
		return err
	}
	localPath, err := media.Download(ctx, f.httpClient, item.VideoURL, f.cfg.Paths.StagingDir, cookies)
	if err != nil {
		return err
	}
	item.LocalPath = localPath
	item.PublicURL = ""

	item.SetProgress("Fetching", "Re-encoding for compatibility", 75)
	if err := f.store.Update(ctx, item); err != nil {
		logger.Warn("failed to persist fetch progress", logging.Error(err))
	}

	if err := media.Reencode(ctx, f.cfg.FFmpegBinary(), localPath); err != nil {
		// Publishing can proceed with the original file, audio quality may suffer.
		if errors.Is(err, media.ErrEncoderMissing) {
			logger.Warn("ffmpeg unavailable, skipping re-encode")
		} else {
			logger.Warn("re-encode failed, continuing with original file", logging.Error(err))
		}
	}

	item.SetProgress("Fetching", "Video ready", 100)
	logger.Info("video fetched", logging.String("local_path", localPath))
	return nil
}

// sourceCookies returns session cookies for Instagram-hosted sources.
// Other hosts download anonymously.
func (f *Fetcher) sourceCookies(rawURL string) (map[string]string, error) {
	if !media.RequiresSession(rawURL) {
		return nil, nil
	}

	path := ""
	if f.cfg != nil {
		path = strings.TrimSpace(f.cfg.Instagram.CookiesPath)
	}
	if path == "" {
		return nil, services.Wrapf(services.ErrConfiguration, "instagram source %q requires cookies_path", rawURL)
	}
	return media.LoadCookies(path)
}

func (f *Fetcher) HealthCheck(ctx context.Context) stage.Health {
	if f.cfg == nil || f.cfg.Paths.StagingDir == "" {
		return stage.Unhealthy("fetcher", "staging directory not configured")
	}
	if _, err := exec.LookPath(f.cfg.FFmpegBinary()); err != nil {
		return stage.Degraded("fetcher", "ffmpeg not found; downloads will not be re-encoded")
	}
	return stage.Healthy("fetcher")
}
