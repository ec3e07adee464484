// Package uploader hosts downloaded videos on tmpfiles.org so the Graph API
// can fetch them.
package uploader

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/queue"
	"reelpost/internal/services"
	"reelpost/internal/services/tmpfiles"
	"reelpost/internal/stage"
)

// HostingService uploads a local file and returns its public URL.
type HostingService interface {
	Upload(ctx context.Context, path string) (string, error)
	Verify(ctx context.Context, hostedURL string) error
}

// Uploader publishes local video files to a temporary host.
type Uploader struct {
	store   *queue.Store
	cfg     *config.Config
	logger  *slog.Logger
	hosting HostingService
}

// NewUploader constructs the upload stage handler.
func NewUploader(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Uploader {
	client := tmpfiles.New(cfg.Uploader.Endpoint, nil)
	return NewUploaderWithDependencies(cfg, store, logger, client)
}

// NewUploaderWithDependencies allows injecting the hosting service (used in tests).
func NewUploaderWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, hosting HostingService) *Uploader {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "uploader"))
	}
	return &Uploader{store: store, cfg: cfg, logger: stageLogger, hosting: hosting}
}

func (u *Uploader) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, u.logger)
	item.InitProgress("Uploading", "Preparing video upload")
	logger.Info("starting upload", logging.String("local_path", item.LocalPath))
	return nil
}

func (u *Uploader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, u.logger)

	// Direct source URLs skip hosting entirely.
	if strings.TrimSpace(item.PublicURL) != "" {
		item.SetProgress("Uploading", "Source URL already public", 100)
		logger.Info("upload skipped, url already public", logging.String("public_url", item.PublicURL))
		return nil
	}

	if strings.TrimSpace(item.LocalPath) == "" {
		return services.Wrapf(services.ErrValidation, "no local video to upload for item %d", item.ID)
	}

	if u.cfg != nil && u.cfg.Uploader.MaxUploadMiB > 0 {
		if info, err := os.Stat(item.LocalPath); err == nil {
			sizeMiB := info.Size() >> 20
			if sizeMiB > int64(u.cfg.Uploader.MaxUploadMiB) {
				logger.Warn("video exceeds the host size limit, attempting upload anyway",
					logging.Int64("size_mib", sizeMiB),
					logging.Int("limit_mib", u.cfg.Uploader.MaxUploadMiB),
				)
			}
		}
	}

	item.SetProgress("Uploading", "Uploading to temporary host", 25)
	if err := u.store.Update(ctx, item); err != nil {
		logger.Warn("failed to persist upload progress", logging.Error(err))
	}

	hostedURL, err := u.hosting.Upload(ctx, item.LocalPath)
	if err != nil {
		return err
	}

	if err := u.hosting.Verify(ctx, hostedURL); err != nil {
		// hosted urls occasionally fail HEAD checks yet still serve Instagram
		logger.Warn("hosted url verification failed, continuing", logging.Error(err))
	}

	item.PublicURL = hostedURL
	item.SetProgress("Uploading", "Video hosted", 100)
	logger.Info("video hosted", logging.String("public_url", hostedURL))
	return nil
}

func (u *Uploader) HealthCheck(ctx context.Context) stage.Health {
	if u.hosting == nil {
		return stage.Unhealthy("uploader", "hosting service unavailable")
	}
	if u.cfg != nil && !strings.HasPrefix(u.cfg.Uploader.Endpoint, "http") {
		return stage.Unhealthy("uploader", "upload endpoint not configured")
	}
	return stage.Healthy("uploader")
}
