package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the task registry, backed by an in-memory SQLite database.
// The single-connection pool serializes every mutation, which is what
// keeps the dispatcher's view of task state consistent.
type Store struct {
	db *sql.DB
}

// Open initializes a fresh registry. The database lives only as long as
// the process; nothing is persisted across restarts.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// An in-memory database exists per connection, so the pool must never
	// grow beyond one.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewTask inserts a pending task and returns the stored record.
func (s *Store) NewTask(ctx context.Context, id, name string, size int64) (*Task, error) {
	if id == "" {
		return nil, errors.New("task id must not be empty")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO upload_tasks (id, name, size, status, progress, retry_count, created_at, updated_at)
         VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		id,
		name,
		size,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a task by identifier. A missing id yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM upload_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// Update persists changes to an existing task.
func (s *Store) Update(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	task.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_tasks
         SET name = ?, size = ?, status = ?, progress = ?, error_message = ?,
             retry_count = ?, updated_at = ?, started_at = ?, ended_at = ?, next_attempt_at = ?
         WHERE id = ?`,
		task.Name,
		task.Size,
		task.Status,
		task.Progress,
		nullableString(task.ErrorMessage),
		task.RetryCount,
		task.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(task.StartedAt),
		nullableTime(task.EndedAt),
		nullableTime(task.NextAttemptAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// UpdateProgress raises a task's progress while it is uploading. Progress
// never moves backwards; stale reports are ignored.
func (s *Store) UpdateProgress(ctx context.Context, id string, percent float64) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_tasks
         SET progress = CASE WHEN ? > progress THEN ? ELSE progress END, updated_at = ?
         WHERE id = ? AND status = ?`,
		percent,
		percent,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusUploading,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// NextPending returns the oldest pending task whose retry delay, if any,
// has elapsed. Submission order decides admission order.
func (s *Store) NextPending(ctx context.Context, now time.Time) (*Task, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+` FROM upload_tasks
         WHERE status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
         ORDER BY seq LIMIT 1`,
		StatusPending,
		now.UTC().Format(time.RFC3339Nano),
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return task, nil
}

// List returns tasks filtered by status set (or all tasks when no status
// is provided), in submission order.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Task, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + taskColumns + ` FROM upload_tasks`
	orderClause := ` ORDER BY seq`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Remove deletes a task by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM upload_tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all tasks from the registry.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM upload_tasks`)
	if err != nil {
		return 0, fmt.Errorf("clear registry: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves every failed task back to pending with its retry
// budget and progress reset.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_tasks
         SET status = ?, progress = 0, retry_count = 0, error_message = NULL,
             started_at = NULL, ended_at = NULL, next_attempt_at = NULL, updated_at = ?
         WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("retry failed tasks: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of tasks grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM upload_tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("registry stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Summarize aggregates registry state for status output.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{}
	for status, count := range stats {
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending += count
		case StatusUploading:
			summary.Uploading += count
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		}
	}

	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(AVG(progress), 0) FROM upload_tasks`)
	if err := row.Scan(&summary.AverageProgress); err != nil {
		return Summary{}, fmt.Errorf("average progress: %w", err)
	}
	return summary, nil
}

const taskColumns = "id, name, size, status, progress, error_message, retry_count, created_at, updated_at, started_at, ended_at, next_attempt_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id             string
		name           string
		size           int64
		statusStr      string
		progress       float64
		errorMessage   sql.NullString
		retryCount     int
		createdRaw     string
		updatedRaw     string
		startedRaw     sql.NullString
		endedRaw       sql.NullString
		nextAttemptRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&name,
		&size,
		&statusStr,
		&progress,
		&errorMessage,
		&retryCount,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&endedRaw,
		&nextAttemptRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:           id,
		Name:         name,
		Size:         size,
		Status:       Status(statusStr),
		Progress:     progress,
		ErrorMessage: errorMessage.String,
		RetryCount:   retryCount,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		task.UpdatedAt = updated
	}
	task.StartedAt = parseNullableTime(startedRaw)
	task.EndedAt = parseNullableTime(endedRaw)
	task.NextAttemptAt = parseNullableTime(nextAttemptRaw)
	return task, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	parsed, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
