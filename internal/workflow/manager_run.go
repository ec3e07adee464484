package workflow

import (
	"context"
	"time"

	"reelpost/internal/logging"
	"reelpost/internal/queue"
)

func (m *Manager) run(ctx context.Context) {
	m.logger.Info("workflow loop started",
		logging.Duration("poll_interval", m.pollInterval),
		logging.Duration("post_interval", m.postInterval),
	)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("workflow loop stopping")
			return
		default:
		}

		processed, err := m.processNext(ctx)
		if err != nil && ctx.Err() != nil {
			return
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.pollInterval):
		}
	}
}

// processNext picks the oldest actionable item and runs one stage on it.
// It returns true when a stage was executed.
func (m *Manager) processNext(ctx context.Context) (bool, error) {
	for _, ps := range m.stages {
		item, err := m.store.NextForStatuses(ctx, ps.startStatus)
		if err != nil {
			m.logger.Error("failed to poll queue", logging.Error(err))
			m.setLastError(err)
			return false, err
		}
		if item == nil {
			continue
		}

		// Published posts are paced to avoid Graph API rate limits.
		if ps.doneStatus == queue.StatusCompleted {
			due, wait := m.publishDue(ctx)
			if !due {
				m.logger.Debug("deferring publish until pacing window elapses",
					logging.Int64(logging.FieldItemID, item.ID),
					logging.Duration("wait", wait),
				)
				continue
			}
		}

		if err := m.processItem(ctx, ps, item); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

// publishDue reports whether enough time has passed since the last publish.
func (m *Manager) publishDue(ctx context.Context) (bool, time.Duration) {
	if m.postInterval <= 0 {
		return true, 0
	}
	last, err := m.store.LastPublishedAt(ctx)
	if err != nil {
		m.logger.Warn("failed to read last publish time", logging.Error(err))
		return true, 0
	}
	if last == nil {
		return true, 0
	}
	elapsed := time.Since(*last)
	if elapsed >= m.postInterval {
		return true, 0
	}
	return false, m.postInterval - elapsed
}
