package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reelpost/internal/logging"
	"reelpost/internal/queue"
	"reelpost/internal/services"
)

func (m *Manager) processItem(ctx context.Context, ps pipelineStage, item *queue.Item) error {
	requestID := uuid.NewString()
	stageCtx := services.WithItemID(ctx, item.ID)
	stageCtx = services.WithStage(stageCtx, ps.name)
	stageCtx = services.WithRequestID(stageCtx, requestID)
	stageLogger := logging.WithContext(stageCtx, m.logger)

	if err := m.transitionToProcessing(stageCtx, ps, item); err != nil {
		stageLogger.Error("failed to transition item to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, ps, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, ps pipelineStage, item *queue.Item) error {
	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String("processing_status", string(ps.processingStatus)),
		logging.String(logging.FieldVideoURL, item.VideoURL),
	)

	if ps.handler == nil {
		item.SetFailed(fmt.Sprintf("stage %s missing handler", ps.name))
		if err := m.store.Update(ctx, item); err != nil {
			stageLogger.Error("failed to persist missing handler failure", logging.Error(err))
		}
		err := errors.New("stage handler unavailable")
		m.setLastError(err)
		return err
	}

	if err := ps.handler.Prepare(ctx, item); err != nil {
		m.handleStageFailure(ctx, ps, item, err)
		return err
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	if err := ps.handler.Execute(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return err
		}
		m.handleStageFailure(ctx, ps, item, err)
		return err
	}

	if item.Status == ps.processingStatus || item.Status == "" {
		item.Status = ps.doneStatus
	}
	item.LastHeartbeat = nil
	item.RetryCount = 0
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	stageLogger.Info("stage completed",
		logging.String("next_status", string(item.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastItem(item)
	return nil
}

func (m *Manager) transitionToProcessing(ctx context.Context, ps pipelineStage, item *queue.Item) error {
	now := time.Now().UTC()
	item.Status = ps.processingStatus
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	item.LastHeartbeat = &now
	if err := m.store.Update(ctx, item); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastItem(item)
	return nil
}

func (m *Manager) handleStageFailure(ctx context.Context, ps pipelineStage, item *queue.Item, stageErr error) {
	stageLogger := logging.WithContext(ctx, m.logger)
	m.setLastError(stageErr)

	if services.IsRetryable(stageErr) {
		if rollback, ok := queue.RollbackStatus(item.Status); ok {
			item.RetryCount++
			if item.RetryCount < m.maxRetries() {
				item.Status = rollback
				item.ErrorMessage = stageErr.Error()
				item.LastHeartbeat = nil
				item.ProgressMessage = fmt.Sprintf("%s failed, will retry", ps.name)
				if err := m.store.Update(ctx, item); err != nil {
					stageLogger.Error("failed to persist retry rollback", logging.Error(err))
				}
				stageLogger.Warn("stage failed, rolled back for retry",
					logging.String("classification", services.Classification(stageErr)),
					logging.Int("attempt", item.RetryCount),
					logging.Error(stageErr),
				)
				m.waitAfterError(ctx)
				return
			}
			stageLogger.Warn("retry budget exhausted",
				logging.Int("attempts", item.RetryCount),
				logging.Error(stageErr),
			)
		}
	}

	item.SetFailed(stageErr.Error())
	if err := m.store.Update(ctx, item); err != nil {
		stageLogger.Error("failed to persist stage failure", logging.Error(err))
	}
	stageLogger.Error("stage failed",
		logging.String("classification", services.Classification(stageErr)),
		logging.Error(stageErr),
	)
	if m.notifier != nil {
		if err := m.notifier.NotifyError(ctx, stageErr, ps.name); err != nil {
			stageLogger.Debug("error notification failed", logging.Error(err))
		}
	}
	m.setLastItem(item)
}

// maxRetries is the number of transient failures an item may accumulate
// before it is marked failed.
func (m *Manager) maxRetries() int {
	if m.cfg.Workflow.MaxRetries > 0 {
		return m.cfg.Workflow.MaxRetries
	}
	return 3
}

func (m *Manager) waitAfterError(ctx context.Context) {
	interval := time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
	if interval <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(interval):
	}
}
