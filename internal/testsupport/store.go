package testsupport

import (
	"context"
	"testing"

	"uploadq/internal/queue"
)

// MustOpenStore opens a registry store for tests and registers cleanup.
func MustOpenStore(t testing.TB) *queue.Store {
	t.Helper()

	store, err := queue.Open()
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewTask inserts a pending task for tests using the provided store.
func NewTask(t testing.TB, store *queue.Store, id, name string, size int64) *queue.Task {
	t.Helper()

	task, err := store.NewTask(context.Background(), id, name, size)
	if err != nil {
		t.Fatalf("store.NewTask: %v", err)
	}
	return task
}
