// Package publisher pushes hosted videos to Instagram through the Graph API
// and finalizes queue items.
package publisher

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/notifications"
	"reelpost/internal/queue"
	"reelpost/internal/services"
	"reelpost/internal/services/instagram"
	"reelpost/internal/stage"
)

// GraphService is the Graph API surface the publisher needs.
type GraphService interface {
	CreateContainer(ctx context.Context, videoURL, caption string) (string, error)
	WaitForProcessing(ctx context.Context, creationID string) error
	Publish(ctx context.Context, creationID string) (string, error)
}

// Publisher posts finished videos to Instagram.
type Publisher struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	graph    GraphService
	notifier notifications.Service
}

// NewPublisher constructs the publish stage handler with a live Graph client.
func NewPublisher(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Publisher, error) {
	client, err := instagram.New(cfg.Instagram.AccessToken, cfg.Instagram.AccountID, cfg.Instagram.GraphAPIVersion)
	if err != nil {
		return nil, err
	}
	return NewPublisherWithDependencies(cfg, store, logger, client, notifications.NewService(cfg)), nil
}

// NewPublisherWithDependencies allows injecting collaborators (used in tests).
func NewPublisherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, graph GraphService, notifier notifications.Service) *Publisher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "publisher"))
	}
	return &Publisher{store: store, cfg: cfg, logger: stageLogger, graph: graph, notifier: notifier}
}

func (p *Publisher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	item.InitProgress("Publishing", "Creating media container")
	logger.Info("starting publish", logging.String("public_url", item.PublicURL))
	return nil
}

func (p *Publisher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	if strings.TrimSpace(item.PublicURL) == "" {
		return services.Wrapf(services.ErrValidation, "no public video url for item %d", item.ID)
	}
	if strings.TrimSpace(item.Caption) == "" {
		return services.Wrapf(services.ErrValidation, "no caption for item %d", item.ID)
	}

	creationID, err := p.graph.CreateContainer(ctx, item.PublicURL, item.Caption)
	if err != nil {
		return err
	}
	item.CreationID = creationID
	item.SetProgress("Publishing", "Waiting for Instagram processing", 33)
	if err := p.store.Update(ctx, item); err != nil {
		logger.Warn("failed to persist publish progress", logging.Error(err))
	}
	logger.Info("media container created", logging.String("creation_id", creationID))

	if err := p.graph.WaitForProcessing(ctx, creationID); err != nil {
		return err
	}
	item.SetProgress("Publishing", "Publishing post", 66)
	if err := p.store.Update(ctx, item); err != nil {
		logger.Warn("failed to persist publish progress", logging.Error(err))
	}

	postID, err := p.graph.Publish(ctx, creationID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	item.PostID = postID
	item.PublishedAt = &now
	item.SetProgress("Publishing", "Published", 100)
	logger.Info("post published", logging.String("post_id", postID))

	p.cleanup(item, logger)

	if p.notifier != nil {
		if err := p.notifier.NotifyPublished(ctx, postID, item.Caption); err != nil {
			logger.Warn("publish notification failed", logging.Error(err))
		}
	}
	return nil
}

// cleanup removes the staged local copy once the post is live.
func (p *Publisher) cleanup(item *queue.Item, logger *slog.Logger) {
	if item.LocalPath == "" {
		return
	}
	if err := os.Remove(item.LocalPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove staged video", logging.Error(err), logging.String("local_path", item.LocalPath))
		return
	}
	logger.Info("staged video removed", logging.String("local_path", item.LocalPath))
	item.LocalPath = ""
}

func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	if p.graph == nil {
		return stage.Unhealthy("publisher", "graph api client unavailable")
	}
	if p.cfg != nil {
		if strings.TrimSpace(p.cfg.Instagram.AccessToken) == "" {
			return stage.Unhealthy("publisher", "instagram access token not configured")
		}
		if strings.TrimSpace(p.cfg.Instagram.AccountID) == "" {
			return stage.Unhealthy("publisher", "instagram account id not configured")
		}
	}
	return stage.Healthy("publisher")
}
