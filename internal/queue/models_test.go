package queue

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  Status
		ok    bool
	}{
		{"pending", StatusPending, true},
		{"UPLOADING", StatusUploading, true},
		{"  completed ", StatusCompleted, true},
		{"failed", StatusFailed, true},
		{"cancelled", StatusCancelled, true},
		{"", "", false},
		{"unknown", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.input)
		if ok != tc.ok {
			t.Errorf("ParseStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPending:   false,
		StatusUploading: false,
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestScheduleRetryResetsProgress(t *testing.T) {
	now := time.Now().UTC()
	task := &Task{ID: "t", Status: StatusUploading, Progress: 42, RetryCount: 1}
	task.MarkUploading(now)

	next := now.Add(time.Second)
	task.ScheduleRetry(next)

	if task.Status != StatusPending {
		t.Fatalf("expected pending, got %s", task.Status)
	}
	if task.Progress != 0 {
		t.Fatalf("progress should reset, got %f", task.Progress)
	}
	if task.RetryCount != 2 {
		t.Fatalf("retry count should increment, got %d", task.RetryCount)
	}
	if task.NextAttemptAt == nil || !task.NextAttemptAt.Equal(next) {
		t.Fatalf("unexpected next attempt %v", task.NextAttemptAt)
	}
	if task.StartedAt != nil {
		t.Fatal("started timestamp should clear on retry")
	}
}

func TestMarkCompletedForcesFullProgress(t *testing.T) {
	now := time.Now().UTC()
	task := &Task{ID: "t", Progress: 97.5}
	task.MarkUploading(now)
	task.MarkCompleted(now.Add(time.Second))

	if task.Status != StatusCompleted || task.Progress != 100 {
		t.Fatalf("unexpected completion state: %#v", task)
	}
	if task.EndedAt == nil {
		t.Fatal("completion should record an end time")
	}
}

func TestDuration(t *testing.T) {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	task := &Task{}
	if task.Duration(start) != 0 {
		t.Fatal("task never started should have zero duration")
	}

	task.MarkUploading(start)
	if got := task.Duration(start.Add(3 * time.Second)); got != 3*time.Second {
		t.Fatalf("in-flight duration = %v, want 3s", got)
	}

	task.MarkCompleted(start.Add(5 * time.Second))
	if got := task.Duration(start.Add(time.Hour)); got != 5*time.Second {
		t.Fatalf("ended duration = %v, want 5s", got)
	}
}

func TestSummaryDrained(t *testing.T) {
	if !(Summary{Completed: 2, Failed: 1}).Drained() {
		t.Fatal("terminal-only summary should be drained")
	}
	if (Summary{Pending: 1}).Drained() {
		t.Fatal("pending work is not drained")
	}
	if (Summary{Uploading: 1}).Drained() {
		t.Fatal("in-flight work is not drained")
	}
}
