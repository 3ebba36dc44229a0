package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"uploadq/internal/queue"
	"uploadq/internal/testsupport"
)

func TestNewTaskAndGetByID(t *testing.T) {
	store := testsupport.MustOpenStore(t)

	ctx := context.Background()
	task, err := store.NewTask(ctx, "task-1", "report.pdf", 2048)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	if task.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", task.Status)
	}
	if task.Progress != 0 {
		t.Fatalf("expected zero progress, got %f", task.Progress)
	}

	fetched, err := store.GetByID(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Name != "report.pdf" || fetched.Size != 2048 {
		t.Fatalf("unexpected fetched task: %#v", fetched)
	}

	missing, err := store.GetByID(ctx, "nope")
	if err != nil {
		t.Fatalf("GetByID for unknown id failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown id, got %#v", missing)
	}
}

func TestNewTaskRequiresID(t *testing.T) {
	store := testsupport.MustOpenStore(t)

	if _, err := store.NewTask(context.Background(), "", "x", 1); err == nil {
		t.Fatal("expected error when id missing")
	}
}

func TestNextPendingIsFIFO(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		testsupport.NewTask(t, store, fmt.Sprintf("task-%d", i), fmt.Sprintf("file-%d", i), 10)
	}

	next, err := store.NextPending(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != "task-0" {
		t.Fatalf("expected task-0 first, got %#v", next)
	}

	next.MarkUploading(time.Now().UTC())
	if err := store.Update(ctx, next); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	next, err = store.NextPending(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != "task-1" {
		t.Fatalf("expected task-1 second, got %#v", next)
	}
}

func TestNextPendingHonorsRetryGate(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	ctx := context.Background()

	first := testsupport.NewTask(t, store, "task-a", "a.bin", 10)
	testsupport.NewTask(t, store, "task-b", "b.bin", 10)

	// task-a waits out a backoff delay; task-b should be admitted first.
	first.ScheduleRetry(time.Now().UTC().Add(time.Hour))
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	next, err := store.NextPending(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != "task-b" {
		t.Fatalf("expected task-b while task-a backs off, got %#v", next)
	}

	next, err = store.NextPending(ctx, time.Now().UTC().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != "task-a" {
		t.Fatalf("expected task-a once its delay elapsed, got %#v", next)
	}
}

func TestUpdateProgressIsMonotonic(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	ctx := context.Background()

	task := testsupport.NewTask(t, store, "task-p", "p.bin", 10)
	task.MarkUploading(time.Now().UTC())
	if err := store.Update(ctx, task); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := store.UpdateProgress(ctx, "task-p", 60); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if err := store.UpdateProgress(ctx, "task-p", 40); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	updated, err := store.GetByID(ctx, "task-p")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Progress != 60 {
		t.Fatalf("expected progress to hold at 60, got %f", updated.Progress)
	}
}

func TestUpdateProgressIgnoresNonUploading(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	ctx := context.Background()

	testsupport.NewTask(t, store, "task-q", "q.bin", 10)
	if err := store.UpdateProgress(ctx, "task-q", 50); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	task, err := store.GetByID(ctx, "task-q")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if task.Progress != 0 {
		t.Fatalf("pending task progress should stay 0, got %f", task.Progress)
	}
}

func TestRetryFailedResetsTasks(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	ctx := context.Background()

	task := testsupport.NewTask(t, store, "task-f", "f.bin", 10)
	task.MarkUploading(time.Now().UTC())
	task.RetryCount = 3
	task.Progress = 80
	task.SetFailed("server returned 503", time.Now().UTC())
	if err := store.Update(ctx, task); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 task requeued, got %d", count)
	}

	updated, err := store.GetByID(ctx, "task-f")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}
	if updated.RetryCount != 0 || updated.Progress != 0 || updated.ErrorMessage != "" {
		t.Fatalf("expected reset task, got %#v", updated)
	}
}

func TestSummarize(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	ctx := context.Background()

	pending := testsupport.NewTask(t, store, "s-1", "one", 10)
	uploading := testsupport.NewTask(t, store, "s-2", "two", 10)
	done := testsupport.NewTask(t, store, "s-3", "three", 10)
	_ = pending

	uploading.MarkUploading(time.Now().UTC())
	uploading.Progress = 50
	if err := store.Update(ctx, uploading); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	done.MarkCompleted(time.Now().UTC())
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.Total != 3 || summary.Pending != 1 || summary.Uploading != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if summary.AverageProgress != 50 {
		t.Fatalf("expected average progress 50 (mean of 0, 50, 100), got %f", summary.AverageProgress)
	}
}

func TestRemoveAndClear(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	ctx := context.Background()

	testsupport.NewTask(t, store, "r-1", "one", 10)
	testsupport.NewTask(t, store, "r-2", "two", 10)

	removed, err := store.Remove(ctx, "r-1")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal to report true")
	}
	removed, err = store.Remove(ctx, "r-1")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed {
		t.Fatal("expected second removal to report false")
	}

	count, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 task cleared, got %d", count)
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.Total != 0 {
		t.Fatalf("expected empty registry, got %#v", summary)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	ctx := context.Background()

	testsupport.NewTask(t, store, "l-1", "one", 10)
	failing := testsupport.NewTask(t, store, "l-2", "two", 10)
	failing.SetFailed("boom", time.Now().UTC())
	if err := store.Update(ctx, failing); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	failed, err := store.List(ctx, queue.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != "l-2" {
		t.Fatalf("unexpected failed list: %#v", failed)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}
}
