// Package captioner turns a video's SRT subtitles into an Instagram caption.
package captioner

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/queue"
	"reelpost/internal/services"
	"reelpost/internal/services/gemini"
	"reelpost/internal/stage"
	"reelpost/internal/subtitles"
)

// CaptionService generates a caption from subtitle text.
type CaptionService interface {
	GenerateCaption(ctx context.Context, subtitleText string) (string, error)
}

// Captioner fetches subtitles and produces captions for queued videos.
type Captioner struct {
	store      *queue.Store
	cfg        *config.Config
	logger     *slog.Logger
	captions   CaptionService
	httpClient *http.Client
}

// NewCaptioner constructs the captioning stage with a live Gemini client.
func NewCaptioner(ctx context.Context, cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Captioner, error) {
	client, err := gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}
	return NewCaptionerWithDependencies(cfg, store, logger, client, nil), nil
}

// NewCaptionerWithDependencies allows injecting collaborators (used in tests).
func NewCaptionerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, captions CaptionService, httpClient *http.Client) *Captioner {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "captioner"))
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Captioner{store: store, cfg: cfg, logger: stageLogger, captions: captions, httpClient: httpClient}
}

func (c *Captioner) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)
	item.InitProgress("Captioning", "Fetching subtitles")
	logger.Info("starting caption preparation",
		logging.String(logging.FieldVideoURL, item.VideoURL),
		logging.String("subtitle_url", item.SubtitleURL),
	)
	return nil
}

func (c *Captioner) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)

	if strings.TrimSpace(item.SubtitleURL) == "" {
		return services.Wrapf(services.ErrValidation, "no subtitle url for item %d", item.ID)
	}

	raw, err := subtitles.Fetch(ctx, c.httpClient, item.SubtitleURL)
	if err != nil {
		return err
	}

	text, err := subtitles.Text(raw)
	if err != nil {
		return err
	}
	logger.Info("subtitle text extracted", logging.Int("characters", len(text)))

	item.SetProgress("Captioning", "Generating caption", 50)
	if err := c.store.Update(ctx, item); err != nil {
		logger.Warn("failed to persist caption progress", logging.Error(err))
	}

	caption, err := c.captions.GenerateCaption(ctx, text)
	if err != nil {
		return err
	}

	item.Caption = caption
	item.SetProgress("Captioning", "Caption ready", 100)
	logger.Info("caption generated", logging.Int("caption_length", len(caption)))
	return nil
}

func (c *Captioner) HealthCheck(ctx context.Context) stage.Health {
	if c.captions == nil {
		return stage.Unhealthy("captioner", "caption service unavailable")
	}
	if c.cfg != nil && strings.TrimSpace(c.cfg.Gemini.APIKey) == "" {
		return stage.Unhealthy("captioner", "gemini api key not configured")
	}
	return stage.Healthy("captioner")
}
