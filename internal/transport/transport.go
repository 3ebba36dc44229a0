package transport

import (
	"context"
	"io"
)

// ProgressFunc receives the fraction of a simple transfer that has been
// sent so far, in [0, 1]. Implementations may call it from the transfer
// goroutine; it must not block.
type ProgressFunc func(fraction float64)

// Transport performs the actual byte transfer for the upload manager.
// Implementations must observe ctx and stop promptly when it is
// cancelled; the manager never force-kills I/O.
type Transport interface {
	// Upload sends the whole payload as a single request.
	Upload(ctx context.Context, name string, body io.Reader, size int64, progress ProgressFunc) error
	// UploadChunk sends one slice of a chunked payload. Chunks arrive
	// sequentially, index counted from 0.
	UploadChunk(ctx context.Context, name string, body io.Reader, index, total int, size int64) error
}
