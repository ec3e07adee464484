package workflow_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"reelpost/internal/logging"
	"reelpost/internal/notifications"
	"reelpost/internal/queue"
	"reelpost/internal/services"
	"reelpost/internal/stage"
	"reelpost/internal/testsupport"
	"reelpost/internal/workflow"
)

type scriptedStage struct {
	name       string
	executions atomic.Int64
	executeErr error
	onExecute  func(*queue.Item)
}

func (s *scriptedStage) Prepare(_ context.Context, item *queue.Item) error {
	item.InitProgress(s.name, s.name+" started")
	return nil
}

func (s *scriptedStage) Execute(_ context.Context, item *queue.Item) error {
	s.executions.Add(1)
	if s.executeErr != nil {
		return s.executeErr
	}
	if s.onExecute != nil {
		s.onExecute(item)
	}
	return nil
}

func (s *scriptedStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			item, _ := store.GetByID(context.Background(), id)
			t.Fatalf("timed out waiting for status %s, item: %#v", want, item)
		case <-time.After(10 * time.Millisecond):
		}
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if item != nil && item.Status == want {
			return item
		}
	}
}

func TestManagerRunsItemThroughPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.PostIntervalMinutes = 0
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/pipeline.mp4", "https://cdn/pipeline.srt")

	captioner := &scriptedStage{name: "captioner", onExecute: func(i *queue.Item) { i.Caption = "caption" }}
	fetcher := &scriptedStage{name: "fetcher", onExecute: func(i *queue.Item) { i.PublicURL = "https://cdn/pipeline.mp4" }}
	uploaderStage := &scriptedStage{name: "uploader"}
	publisherStage := &scriptedStage{name: "publisher", onExecute: func(i *queue.Item) {
		now := time.Now().UTC()
		i.PostID = "post-1"
		i.PublishedAt = &now
	}}

	mgr := workflow.NewManager(cfg, store, logging.NewNop(), notifications.NewNoop())
	mgr.RegisterStage("captioner", queue.StatusPending, queue.StatusCaptioning, queue.StatusCaptioned, captioner)
	mgr.RegisterStage("fetcher", queue.StatusCaptioned, queue.StatusFetching, queue.StatusFetched, fetcher)
	mgr.RegisterStage("uploader", queue.StatusFetched, queue.StatusUploading, queue.StatusUploaded, uploaderStage)
	mgr.RegisterStage("publisher", queue.StatusUploaded, queue.StatusPublishing, queue.StatusCompleted, publisherStage)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer mgr.Stop()

	final := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if final.Caption != "caption" || final.PostID != "post-1" {
		t.Fatalf("pipeline results missing: %#v", final)
	}
	for _, s := range []*scriptedStage{captioner, fetcher, uploaderStage, publisherStage} {
		if s.executions.Load() != 1 {
			t.Errorf("stage %s executed %d times, want 1", s.name, s.executions.Load())
		}
	}
}

func TestManagerFailsItemOnPermanentError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 0
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/fail.mp4", "")

	failing := &scriptedStage{
		name:       "captioner",
		executeErr: services.Wrapf(services.ErrValidation, "no subtitle url"),
	}
	mgr := workflow.NewManager(cfg, store, logging.NewNop(), notifications.NewNoop())
	mgr.RegisterStage("captioner", queue.StatusPending, queue.StatusCaptioning, queue.StatusCaptioned, failing)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer mgr.Stop()

	final := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if final.ErrorMessage == "" {
		t.Fatal("expected error message on failed item")
	}
	if mgr.LastError() == nil {
		t.Fatal("expected manager to record last error")
	}
}

func TestManagerRollsBackRetryableFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 0
	cfg.Workflow.MaxRetries = 1000
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewTask(t, store, "https://cdn/retry.mp4", "https://cdn/retry.srt")

	flaky := &scriptedStage{name: "captioner"}
	flaky.executeErr = services.Wrapf(services.ErrTransient, "model overloaded")

	mgr := workflow.NewManager(cfg, store, logging.NewNop(), notifications.NewNoop())
	mgr.RegisterStage("captioner", queue.StatusPending, queue.StatusCaptioning, queue.StatusCaptioned, flaky)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for flaky.executions.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected retries, executions: %d", flaky.executions.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
	mgr.Stop()

	final, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.Status == queue.StatusFailed {
		t.Fatalf("transient failures should not fail the item: %#v", final)
	}
}

// deadURLStage fails every execution for one URL and succeeds for the rest.
type deadURLStage struct {
	deadURL     string
	deadRuns    atomic.Int64
	healthyRuns atomic.Int64
}

func (s *deadURLStage) Prepare(_ context.Context, item *queue.Item) error {
	item.InitProgress("captioner", "captioner started")
	return nil
}

func (s *deadURLStage) Execute(_ context.Context, item *queue.Item) error {
	if item.VideoURL == s.deadURL {
		s.deadRuns.Add(1)
		return services.Wrapf(services.ErrTransient, "connection reset by peer")
	}
	s.healthyRuns.Add(1)
	return nil
}

func (s *deadURLStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("captioner")
}

func TestManagerFailsItemAfterRetryBudget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 0
	cfg.Workflow.MaxRetries = 2
	store := testsupport.MustOpenStore(t, cfg)

	dead := testsupport.NewTask(t, store, "https://cdn/dead.mp4", "https://cdn/dead.srt")
	healthy := testsupport.NewTask(t, store, "https://cdn/healthy.mp4", "https://cdn/healthy.srt")

	handler := &deadURLStage{deadURL: dead.VideoURL}
	mgr := workflow.NewManager(cfg, store, logging.NewNop(), notifications.NewNoop())
	mgr.RegisterStage("captioner", queue.StatusPending, queue.StatusCaptioning, queue.StatusCaptioned, handler)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer mgr.Stop()

	final := waitForStatus(t, store, dead.ID, queue.StatusFailed)
	if final.ErrorMessage == "" {
		t.Fatal("expected error message on exhausted item")
	}
	if got := handler.deadRuns.Load(); got != 2 {
		t.Errorf("dead item executed %d times, want 2", got)
	}

	// The failed item must not block younger work at the same stage.
	waitForStatus(t, store, healthy.ID, queue.StatusCaptioned)
	if got := handler.healthyRuns.Load(); got != 1 {
		t.Errorf("healthy item executed %d times, want 1", got)
	}
}

func TestStageHealthAggregates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManager(cfg, store, logging.NewNop(), notifications.NewNoop())
	mgr.RegisterStage("captioner", queue.StatusPending, queue.StatusCaptioning, queue.StatusCaptioned, &scriptedStage{name: "captioner"})
	mgr.RegisterStage("broken", queue.StatusCaptioned, queue.StatusFetching, queue.StatusFetched, nil)

	health := mgr.StageHealth(context.Background())
	if len(health) != 2 {
		t.Fatalf("expected two health entries, got %d", len(health))
	}
	if !health[0].Ready || health[1].Ready {
		t.Fatalf("unexpected health results: %#v", health)
	}
}
