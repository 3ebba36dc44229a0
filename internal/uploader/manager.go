package uploader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"uploadq/internal/config"
	"uploadq/internal/logging"
	"uploadq/internal/queue"
	"uploadq/internal/retry"
	"uploadq/internal/transport"
)

// Manager is the public facade of the upload task manager. It owns the
// task registry, enforces the concurrency ceiling, and is the only
// component that mutates task state.
//
// A Manager is an explicitly constructed value with a Close lifecycle;
// there is no package-level instance.
type Manager struct {
	cfg       *config.Config
	store     *queue.Store
	transport transport.Transport
	logger    *slog.Logger
	policy    retry.Policy
	events    Events
	metrics   *Metrics

	ctx       context.Context
	cancelCtx context.CancelFunc
	wg        sync.WaitGroup

	// mu is the single dispatch authority: every registry transition and
	// every change to the runtime maps happens under it. Transfer I/O
	// itself runs outside the lock.
	mu       sync.Mutex
	payloads map[string]Payload
	cancels  map[string]context.CancelFunc
	timers   map[string]*time.Timer
	active   int
	closed   bool
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithEvents registers lifecycle callbacks.
func WithEvents(events Events) Option {
	return func(m *Manager) {
		m.events = events
	}
}

// WithPolicy overrides the retry policy derived from configuration.
func WithPolicy(policy retry.Policy) Option {
	return func(m *Manager) {
		m.policy = policy
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// New constructs an upload manager. The caller retains ownership of the
// store and closes it after Close returns.
func New(cfg *config.Config, store *queue.Store, tr transport.Transport, logger *slog.Logger, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:       cfg,
		store:     store,
		transport: tr,
		logger:    logging.NewComponentLogger(logger, "upload-manager"),
		policy:    retry.NewPolicy(time.Duration(cfg.RetryBaseDelayMs)*time.Millisecond, cfg.MaxRetries),
		ctx:       ctx,
		cancelCtx: cancel,
		payloads:  make(map[string]Payload),
		cancels:   make(map[string]context.CancelFunc),
		timers:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit creates one pending task per payload and triggers admission. It
// never blocks on transfer capacity and returns the generated task ids
// immediately.
func (m *Manager) Submit(payloads ...Payload) []string {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	ids := make([]string, 0, len(payloads))
	for _, payload := range payloads {
		id := uuid.NewString()
		if _, err := m.store.NewTask(m.ctx, id, payload.Name, payload.Size); err != nil {
			m.logger.Error("failed to register task",
				logging.String("name", payload.Name),
				logging.Error(err),
			)
			continue
		}
		m.payloads[id] = payload
		ids = append(ids, id)
		m.metrics.taskSubmitted()
	}
	m.mu.Unlock()

	if len(ids) > 0 {
		m.emitQueueUpdate()
	}
	m.admit()
	return ids
}

// Cancel aborts one task. A pending task is removed immediately; an
// uploading task has its transfer interrupted and is removed once the
// in-flight call unwinds. Unknown ids return false.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	task, err := m.store.GetByID(m.ctx, id)
	if err != nil || task == nil {
		m.mu.Unlock()
		return false
	}

	if task.Status == queue.StatusUploading {
		if cancel, ok := m.cancels[id]; ok {
			cancel()
		}
		m.mu.Unlock()
		m.logger.Info("cancelling in-flight transfer", logging.String(logging.FieldTaskID, id))
		return true
	}

	m.stopTimerLocked(id)
	_, _ = m.store.Remove(m.ctx, id)
	delete(m.payloads, id)
	m.metrics.taskCancelled()
	m.mu.Unlock()

	m.logger.Info("task removed", logging.String(logging.FieldTaskID, id))
	m.emitQueueUpdate()
	m.admit()
	return true
}

// CancelAll aborts every in-flight transfer and clears the registry.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	for _, cancel := range m.cancels {
		cancel()
	}
	for id := range m.timers {
		m.stopTimerLocked(id)
	}
	if _, err := m.store.Clear(m.ctx); err != nil {
		m.logger.Error("failed to clear registry", logging.Error(err))
	}
	m.payloads = make(map[string]Payload)
	m.mu.Unlock()

	m.logger.Info("all tasks cancelled")
	m.emitQueueUpdate()
}

// RetryFailed moves every failed task back to pending with its retry
// budget and progress reset, then triggers admission.
func (m *Manager) RetryFailed() {
	m.mu.Lock()
	count, err := m.store.RetryFailed(m.ctx)
	m.mu.Unlock()
	if err != nil {
		m.logger.Error("failed to reset failed tasks", logging.Error(err))
		return
	}
	if count > 0 {
		m.logger.Info("failed tasks requeued", logging.Int64("count", count))
		m.emitQueueUpdate()
	}
	m.admit()
}

// Status aggregates registry state. AverageProgress is the simple mean of
// per-task progress, unweighted by payload size.
func (m *Manager) Status() (queue.Summary, error) {
	return m.store.Summarize(m.ctx)
}

// Tasks returns a snapshot of every known task in submission order.
func (m *Manager) Tasks() ([]queue.Task, error) {
	records, err := m.store.List(m.ctx)
	if err != nil {
		return nil, err
	}
	tasks := make([]queue.Task, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, *record)
	}
	return tasks, nil
}

// Close tears the manager down: in-flight transfers are cancelled, timers
// stopped, and the call blocks until every transfer goroutine unwinds.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for id := range m.timers {
		m.stopTimerLocked(id)
	}
	m.mu.Unlock()

	m.cancelCtx()
	m.wg.Wait()
}

// stopTimerLocked stops and forgets a retry or linger timer. Callers hold mu.
func (m *Manager) stopTimerLocked(id string) {
	if timer, ok := m.timers[id]; ok {
		timer.Stop()
		delete(m.timers, id)
	}
}

func (m *Manager) emitQueueUpdate() {
	if m.events.OnQueueUpdate == nil {
		return
	}
	tasks, err := m.Tasks()
	if err != nil {
		return
	}
	m.events.OnQueueUpdate(tasks)
}
