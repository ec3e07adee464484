package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelpost/internal/daemon"
	"reelpost/internal/ipc"
	"reelpost/internal/logging"
	"reelpost/internal/notifications"
	"reelpost/internal/queue"
	"reelpost/internal/stage"
	"reelpost/internal/testsupport"
	"reelpost/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Item) error { return nil }
func (noopStage) Execute(context.Context, *queue.Item) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger, notifications.NewNoop())
	mgr.RegisterStage("captioner", queue.StatusPending, queue.StatusCaptioning, queue.StatusCaptioned, noopStage{})
	d, err := daemon.New(cfg, store, logger, mgr, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(cfg.Paths.LogDir, "reelpost.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}

	postResp, err := client.Post("https://cdn/manual.mp4", "https://cdn/manual.srt")
	if err != nil {
		t.Fatalf("Post RPC failed: %v", err)
	}
	if postResp.Item.ID == 0 || postResp.Item.Status != string(queue.StatusPending) {
		t.Fatalf("unexpected queued item: %#v", postResp.Item)
	}
	if _, err := client.Post("", ""); err == nil {
		t.Fatal("expected Post RPC to reject empty url")
	}

	failedItem, err := store.NewTask(ctx, "https://cdn/failed.mp4", "")
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	failedItem.SetFailed("caption generation failed")
	if err := store.Update(ctx, failedItem); err != nil {
		t.Fatalf("Update: %v", err)
	}

	list, err := client.QueueList([]string{string(queue.StatusFailed)})
	if err != nil {
		t.Fatalf("QueueList RPC failed: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != failedItem.ID {
		t.Fatalf("unexpected failed list: %#v", list.Items)
	}

	describe, err := client.QueueDescribe(failedItem.ID)
	if err != nil {
		t.Fatalf("QueueDescribe RPC failed: %v", err)
	}
	if describe.Item.ErrorMessage != "caption generation failed" {
		t.Fatalf("unexpected describe: %#v", describe.Item)
	}

	retry, err := client.QueueRetry(nil)
	if err != nil {
		t.Fatalf("QueueRetry RPC failed: %v", err)
	}
	if retry.Updated != 1 {
		t.Fatalf("expected one retried item, got %d", retry.Updated)
	}

	health, err := client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth RPC failed: %v", err)
	}
	if health.Total < 2 {
		t.Fatalf("expected at least two items in health, got %d", health.Total)
	}

	cleared, err := client.QueueClear()
	if err != nil {
		t.Fatalf("QueueClear RPC failed: %v", err)
	}
	if cleared.Removed < 2 {
		t.Fatalf("expected clear to remove items, got %d", cleared.Removed)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected Stopped=true")
	}
}

func TestSocketPath(t *testing.T) {
	got := ipc.SocketPath("/var/log/reelpost")
	if got != "/var/log/reelpost/reelpost.sock" {
		t.Fatalf("unexpected socket path: %s", got)
	}
}
