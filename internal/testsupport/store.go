package testsupport

import (
	"context"
	"testing"

	"reelpost/internal/config"
	"reelpost/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTask creates a queue item for tests using the provided store.
func NewTask(t testing.TB, store *queue.Store, videoURL, subtitleURL string) *queue.Item {
	t.Helper()

	item, err := store.NewTask(context.Background(), videoURL, subtitleURL)
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	return item
}
