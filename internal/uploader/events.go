package uploader

import "uploadq/internal/queue"

// Events are the callbacks the manager fires as tasks move through their
// lifecycle. All callbacks are invoked synchronously from the dispatch
// goroutine that performed the transition, outside the dispatch lock; the
// embedding application is responsible for any UI marshaling. Nil
// callbacks are skipped. Task values are snapshots.
type Events struct {
	// OnProgress fires when a task's progress advances.
	OnProgress func(task queue.Task)
	// OnComplete fires when a task reaches completed.
	OnComplete func(task queue.Task)
	// OnError fires when a task reaches failed. Cancelled tasks never
	// produce an error event.
	OnError func(task queue.Task, err error)
	// OnQueueUpdate fires after any change to the set of known tasks.
	OnQueueUpdate func(tasks []queue.Task)
}

func (e Events) fireProgress(task queue.Task) {
	if e.OnProgress != nil {
		e.OnProgress(task)
	}
}

func (e Events) fireComplete(task queue.Task) {
	if e.OnComplete != nil {
		e.OnComplete(task)
	}
}

func (e Events) fireError(task queue.Task, err error) {
	if e.OnError != nil {
		e.OnError(task, err)
	}
}
