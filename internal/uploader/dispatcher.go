package uploader

import (
	"context"
	"time"

	"uploadq/internal/logging"
	"uploadq/internal/queue"
	"uploadq/internal/retry"
)

// admit runs one admission pass: while a concurrency slot is free and an
// admissible pending task exists, start its transfer. Every state change
// (submission, completion, failure re-entry, cancellation, retry timer)
// funnels through here, so the pipeline stays full without polling.
func (m *Manager) admit() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	var started []queue.Task
	for m.active < m.cfg.MaxConcurrent {
		task, err := m.store.NextPending(m.ctx, time.Now().UTC())
		if err != nil {
			m.logger.Error("failed to fetch next pending task", logging.Error(err))
			break
		}
		if task == nil {
			break
		}

		payload, ok := m.payloads[task.ID]
		if !ok {
			// Registry record without a payload cannot transfer; drop it.
			_, _ = m.store.Remove(m.ctx, task.ID)
			continue
		}

		task.MarkUploading(time.Now().UTC())
		if err := m.store.Update(m.ctx, task); err != nil {
			m.logger.Error("failed to mark task uploading",
				logging.String(logging.FieldTaskID, task.ID),
				logging.Error(err),
			)
			break
		}

		transferCtx, cancel := context.WithCancel(m.ctx)
		m.cancels[task.ID] = cancel
		m.active++
		m.metrics.transferStarted()

		m.wg.Add(1)
		go m.runTransfer(transferCtx, *task, payload)
		started = append(started, *task)
	}
	m.mu.Unlock()

	for _, task := range started {
		m.logger.Info("transfer started",
			logging.String(logging.FieldTaskID, task.ID),
			logging.String("name", task.Name),
			logging.Int64("size", task.Size),
			logging.Int("attempt", task.RetryCount+1),
		)
	}
	if len(started) > 0 {
		m.emitQueueUpdate()
	}
}

func (m *Manager) runTransfer(ctx context.Context, task queue.Task, payload Payload) {
	defer m.wg.Done()
	err := m.transfer(ctx, task, payload)
	m.finish(task.ID, err)
}

// finish handles a transfer unwinding, successfully or not, and frees the
// concurrency slot before running the next admission pass.
func (m *Manager) finish(id string, transferErr error) {
	m.mu.Lock()
	if cancel, ok := m.cancels[id]; ok {
		cancel()
		delete(m.cancels, id)
	}
	m.active--
	m.metrics.transferUnwound()

	task, err := m.store.GetByID(m.ctx, id)
	if err != nil || task == nil {
		// The record was removed while the transfer was in flight
		// (Cancel or CancelAll); nothing to record, the slot is free.
		delete(m.payloads, id)
		m.mu.Unlock()
		m.admit()
		return
	}

	now := time.Now().UTC()
	var (
		completed *queue.Task
		failed    *queue.Task
	)
	switch {
	case transferErr == nil:
		task.MarkCompleted(now)
		if err := m.store.Update(m.ctx, task); err != nil {
			m.logger.Error("failed to record completion", logging.Error(err))
		}
		m.scheduleRemovalLocked(id)
		m.metrics.taskCompleted(task.Duration(now))
		snapshot := *task
		completed = &snapshot

	case retry.IsCancellation(transferErr):
		// Caller-initiated: terminal cancelled, removed immediately,
		// never surfaced through OnError.
		_, _ = m.store.Remove(m.ctx, id)
		delete(m.payloads, id)
		m.metrics.taskCancelled()

	case m.policy.Retryable(transferErr) && task.RetryCount < m.policy.MaxRetries:
		attempt := task.RetryCount + 1
		delay := m.policy.Delay(attempt)
		task.ScheduleRetry(now.Add(delay))
		if err := m.store.Update(m.ctx, task); err != nil {
			m.logger.Error("failed to schedule retry", logging.Error(err))
		}
		m.scheduleRetryPassLocked(id, delay)
		m.metrics.transferRetried()
		m.logger.Warn("transfer failed, retry scheduled",
			logging.String(logging.FieldTaskID, id),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(transferErr),
		)

	default:
		task.SetFailed(transferErr.Error(), now)
		if err := m.store.Update(m.ctx, task); err != nil {
			m.logger.Error("failed to record failure", logging.Error(err))
		}
		m.metrics.taskFailed()
		snapshot := *task
		failed = &snapshot
	}
	m.mu.Unlock()

	switch {
	case completed != nil:
		m.logger.Info("transfer completed",
			logging.String(logging.FieldTaskID, id),
			logging.Duration("duration", completed.Duration(now)),
		)
		m.events.fireComplete(*completed)
	case failed != nil:
		m.logger.Error("task failed",
			logging.String(logging.FieldTaskID, id),
			logging.Int("retries", failed.RetryCount),
			logging.Error(transferErr),
		)
		m.events.fireError(*failed, transferErr)
	case retry.IsCancellation(transferErr):
		m.logger.Info("transfer cancelled", logging.String(logging.FieldTaskID, id))
	}
	m.emitQueueUpdate()
	m.admit()
}

// scheduleRemovalLocked arranges for a completed task to leave the
// registry after the configured linger, so late status reads still
// observe the result. Callers hold mu.
func (m *Manager) scheduleRemovalLocked(id string) {
	linger := time.Duration(m.cfg.CompletedLingerSeconds) * time.Second
	m.timers[id] = time.AfterFunc(linger, func() {
		m.mu.Lock()
		delete(m.timers, id)
		if m.closed {
			m.mu.Unlock()
			return
		}
		task, err := m.store.GetByID(m.ctx, id)
		if err == nil && task != nil && task.Status == queue.StatusCompleted {
			_, _ = m.store.Remove(m.ctx, id)
			delete(m.payloads, id)
		}
		m.mu.Unlock()
		m.emitQueueUpdate()
	})
}

// scheduleRetryPassLocked triggers an admission pass once a task's
// backoff delay has elapsed. Callers hold mu.
func (m *Manager) scheduleRetryPassLocked(id string, delay time.Duration) {
	m.timers[id] = time.AfterFunc(delay, func() {
		m.mu.Lock()
		delete(m.timers, id)
		closed := m.closed
		m.mu.Unlock()
		if !closed {
			m.admit()
		}
	})
}
