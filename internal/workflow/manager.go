// Package workflow drives queue items through the publishing pipeline.
package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/notifications"
	"reelpost/internal/queue"
	"reelpost/internal/stage"
)

// pipelineStage binds a stage handler to its queue status transitions.
type pipelineStage struct {
	name             string
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
	handler          stage.Handler
}

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	notifier     notifications.Service
	pollInterval time.Duration
	postInterval time.Duration

	stages []pipelineStage

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item
}

// NewManager constructs a workflow manager without any registered stages.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger.With(logging.String(logging.FieldComponent, "workflow")),
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		postInterval: time.Duration(cfg.Workflow.PostIntervalMinutes) * time.Minute,
	}
}

// RegisterStage wires a handler into the pipeline. Stages run in the order
// their start statuses appear on the queue.
func (m *Manager) RegisterStage(name string, start, processing, done queue.Status, handler stage.Handler) {
	m.stages = append(m.stages, pipelineStage{
		name:             name,
		startStatus:      start,
		processingStatus: processing,
		doneStatus:       done,
		handler:          handler,
	})
}

// Start launches the processing loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("failed to reset stuck items", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("reset stuck items from previous run", logging.Int64("count", reset))
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(runCtx)
	}()
	return nil
}

// Stop halts processing and waits for the in-flight item to settle.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	running := m.running
	m.running = false
	m.mu.Unlock()

	if !running {
		return
	}
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Running reports whether the processing loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastError returns the most recent stage failure.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// LastItem returns a copy of the most recently processed item.
func (m *Manager) LastItem() *queue.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastItem == nil {
		return nil
	}
	cp := *m.lastItem
	return &cp
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	if item == nil {
		m.lastItem = nil
	} else {
		cp := *item
		m.lastItem = &cp
	}
	m.mu.Unlock()
}

// StageHealth runs every registered stage health check.
func (m *Manager) StageHealth(ctx context.Context) []stage.Health {
	results := make([]stage.Health, 0, len(m.stages))
	for _, ps := range m.stages {
		if ps.handler == nil {
			results = append(results, stage.Unhealthy(ps.name, "handler missing"))
			continue
		}
		results = append(results, ps.handler.HealthCheck(ctx))
	}
	return results
}
