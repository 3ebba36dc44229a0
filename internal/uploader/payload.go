package uploader

import "io"

// Payload is an opaque reference to the bytes of one upload. The manager
// never copies the data; transfers slice it with section readers, so Data
// must support concurrent-safe reads at arbitrary offsets (os.File and
// bytes.Reader both qualify).
type Payload struct {
	Name string
	Size int64
	Data io.ReaderAt
}
