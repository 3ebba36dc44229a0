package uploader

import (
	"context"
	"io"

	"uploadq/internal/queue"
)

// transfer drives one attempt for a task, choosing between a single
// request and a chunk sequence based on payload size.
func (m *Manager) transfer(ctx context.Context, task queue.Task, payload Payload) error {
	threshold := m.cfg.ChunkSizeBytes * int64(m.cfg.ChunkThresholdMultiplier)
	if payload.Size > threshold {
		return m.transferChunked(ctx, task, payload)
	}
	return m.transferSimple(ctx, task, payload)
}

func (m *Manager) transferSimple(ctx context.Context, task queue.Task, payload Payload) error {
	body := io.NewSectionReader(payload.Data, 0, payload.Size)
	return m.transport.Upload(ctx, payload.Name, body, payload.Size, func(fraction float64) {
		m.reportProgress(task.ID, fraction*100)
	})
}

// transferChunked sends fixed-size chunks sequentially. Cancellation is
// checked before every chunk; progress is completed chunks over total.
func (m *Manager) transferChunked(ctx context.Context, task queue.Task, payload Payload) error {
	chunkSize := m.cfg.ChunkSizeBytes
	total := int((payload.Size + chunkSize - 1) / chunkSize)

	for index := 0; index < total; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		offset := int64(index) * chunkSize
		length := chunkSize
		if offset+length > payload.Size {
			length = payload.Size - offset
		}

		body := io.NewSectionReader(payload.Data, offset, length)
		if err := m.transport.UploadChunk(ctx, payload.Name, body, index, total, length); err != nil {
			return err
		}
		m.reportProgress(task.ID, float64(index+1)/float64(total)*100)
	}
	return nil
}

// reportProgress persists a progress advance and fires the progress
// event. The store ignores reports for tasks no longer uploading and
// clamps regressions, so racing reports cannot move progress backwards.
func (m *Manager) reportProgress(id string, percent float64) {
	if err := m.store.UpdateProgress(m.ctx, id, percent); err != nil {
		return
	}
	if m.events.OnProgress == nil {
		return
	}
	task, err := m.store.GetByID(m.ctx, id)
	if err != nil || task == nil || task.Status != queue.StatusUploading {
		return
	}
	m.events.fireProgress(*task)
}
