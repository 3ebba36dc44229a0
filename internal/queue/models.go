package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an upload task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusUploading,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Task represents one upload tracked from submission to terminal state.
type Task struct {
	ID            string
	Name          string
	Size          int64
	Status        Status
	Progress      float64
	ErrorMessage  string
	RetryCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     *time.Time
	EndedAt       *time.Time
	NextAttemptAt *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status is a final state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// MarkUploading transitions the task into the active set.
func (t *Task) MarkUploading(now time.Time) {
	started := now
	t.Status = StatusUploading
	t.StartedAt = &started
	t.NextAttemptAt = nil
	t.ErrorMessage = ""
}

// MarkCompleted records successful completion.
func (t *Task) MarkCompleted(now time.Time) {
	ended := now
	t.Status = StatusCompleted
	t.Progress = 100
	t.EndedAt = &ended
}

// SetFailed marks the task as failed with the given error message.
func (t *Task) SetFailed(message string, now time.Time) {
	ended := now
	t.Status = StatusFailed
	t.ErrorMessage = message
	t.EndedAt = &ended
}

// ScheduleRetry returns the task to pending after a transient failure.
// Progress resets and the task is not admissible before nextAttempt.
func (t *Task) ScheduleRetry(nextAttempt time.Time) {
	t.Status = StatusPending
	t.Progress = 0
	t.RetryCount++
	t.StartedAt = nil
	t.EndedAt = nil
	t.NextAttemptAt = &nextAttempt
}

// Duration reports how long the task has been (or was) in flight.
func (t *Task) Duration(now time.Time) time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	end := now
	if t.EndedAt != nil {
		end = *t.EndedAt
	}
	if end.Before(*t.StartedAt) {
		return 0
	}
	return end.Sub(*t.StartedAt)
}

// Summary describes aggregate registry state for status output.
// AverageProgress is the simple mean of per-task progress; payload sizes do
// not weight it.
type Summary struct {
	Total           int
	Pending         int
	Uploading       int
	Completed       int
	Failed          int
	AverageProgress float64
}

// Drained reports whether no work remains in flight or admissible.
func (s Summary) Drained() bool {
	return s.Pending == 0 && s.Uploading == 0
}
