package sheetsync_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"reelpost/internal/logging"
	"reelpost/internal/notifications"
	"reelpost/internal/queue"
	"reelpost/internal/sheetsync"
	"reelpost/internal/testsupport"
)

type fakeSheet struct {
	mu       sync.Mutex
	rows     [][]string
	fetchErr error
	marks    map[int64]bool
	markErr  error
}

func (f *fakeSheet) FetchRows(context.Context) ([][]string, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.rows, nil
}

func (f *fakeSheet) MarkStatus(_ context.Context, row int64, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	if f.marks == nil {
		f.marks = make(map[int64]bool)
	}
	f.marks[row] = success
	return nil
}

func (f *fakeSheet) marked(row int64) (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.marks[row]
	return v, ok
}

func writeCredentials(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}
	return path
}

func newTestPoller(t *testing.T, sheet *fakeSheet) (*sheetsync.Poller, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithSheets(writeCredentials(t), "sheet-1"))
	store := testsupport.MustOpenStore(t, cfg)
	connect := func(context.Context) (sheetsync.SheetService, error) {
		return sheet, nil
	}
	poller := sheetsync.NewPollerWithDependencies(cfg, store, logging.NewNop(), notifications.NewNoop(), connect)
	if err := poller.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return poller, store
}

func TestSyncOnceEnqueuesNewRows(t *testing.T) {
	sheet := &fakeSheet{rows: [][]string{
		{"Video", "Alt", "", "", "Subtitle", "Status"},
		{"https://cdn/a.mp4", "", "", "", "https://cdn/a.srt", ""},
		{"https://cdn/b.mp4", "https://cdn/b-alt.srt", "", "", "", ""},
		{"https://cdn/done.mp4", "", "", "", "https://cdn/done.srt", "yes"},
	}}
	poller, store := newTestPoller(t, sheet)

	if err := poller.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 queued items, got %d", len(items))
	}
	for _, item := range items {
		if item.Status != queue.StatusPending {
			t.Errorf("item %d: expected pending, got %s", item.ID, item.Status)
		}
		if !item.FromSheet() {
			t.Errorf("item %d: expected sheet origin", item.ID)
		}
	}
}

func TestSyncOnceIsIdempotent(t *testing.T) {
	sheet := &fakeSheet{rows: [][]string{
		{"Video", "", "", "", "Subtitle", "Status"},
		{"https://cdn/a.mp4", "", "", "", "https://cdn/a.srt", ""},
	}}
	poller, store := newTestPoller(t, sheet)

	for i := 0; i < 3; i++ {
		if err := poller.SyncOnce(context.Background()); err != nil {
			t.Fatalf("SyncOnce pass %d failed: %v", i, err)
		}
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item after repeated syncs, got %d", len(items))
	}
}

func TestSyncOnceReportsFinishedItems(t *testing.T) {
	sheet := &fakeSheet{rows: [][]string{{"Video", "", "", "", "Subtitle", "Status"}}}
	poller, store := newTestPoller(t, sheet)
	ctx := context.Background()

	completed, err := store.NewSheetTask(ctx, "https://cdn/ok.mp4", "https://cdn/ok.srt", "fp-ok", 2)
	if err != nil {
		t.Fatalf("NewSheetTask failed: %v", err)
	}
	completed.Status = queue.StatusCompleted
	if err := store.Update(ctx, completed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	failed, err := store.NewSheetTask(ctx, "https://cdn/bad.mp4", "https://cdn/bad.srt", "fp-bad", 3)
	if err != nil {
		t.Fatalf("NewSheetTask failed: %v", err)
	}
	failed.SetFailed("caption generation failed")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := poller.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}

	if success, ok := sheet.marked(2); !ok || !success {
		t.Fatalf("expected row 2 marked success, got ok=%v success=%v", ok, success)
	}
	if success, ok := sheet.marked(3); !ok || success {
		t.Fatalf("expected row 3 marked failure, got ok=%v success=%v", ok, success)
	}

	remaining, err := store.Unreported(ctx)
	if err != nil {
		t.Fatalf("Unreported failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no unreported items, got %d", len(remaining))
	}
}

func TestConnectWaitsForCredentialsFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSheets(filepath.Join(t.TempDir(), "missing.json"), "sheet-1"))
	store := testsupport.MustOpenStore(t, cfg)
	connect := func(context.Context) (sheetsync.SheetService, error) {
		return &fakeSheet{}, nil
	}
	poller := sheetsync.NewPollerWithDependencies(cfg, store, logging.NewNop(), notifications.NewNoop(), connect)

	if err := poller.Connect(context.Background()); err == nil {
		t.Fatal("expected Connect to fail while credentials file is missing")
	}
	if err := os.WriteFile(cfg.Sheets.CredentialsPath, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}
	if err := poller.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed after credentials appeared: %v", err)
	}
}
