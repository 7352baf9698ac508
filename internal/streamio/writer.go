package streamio

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Writer is the write-side counterpart of CachedStream, used when a
// handler produces replacement content. Bytes accumulate in memory up to
// the threshold, then spill to a temp file. Stream finalizes the output;
// Discard releases it unused.
type Writer struct {
	cfg  Config
	mem  bytes.Buffer
	file *os.File
	n    int64
	done bool
}

// NewWriter creates a spillover-aware writer.
func NewWriter(cfg Config) *Writer {
	if cfg.MemoryThreshold <= 0 {
		cfg.MemoryThreshold = DefaultConfig().MemoryThreshold
	}
	return &Writer{cfg: cfg}
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, fmt.Errorf("streamio: write after finalize")
	}

	written := 0
	if w.file == nil {
		room := w.cfg.MemoryThreshold - w.mem.Len()
		if room > len(p) {
			room = len(p)
		}
		if room > 0 {
			w.mem.Write(p[:room])
			written += room
			p = p[room:]
		}
		if len(p) > 0 {
			f, err := os.CreateTemp(w.cfg.TempDir, "docpipe-stream-*.bin")
			if err != nil {
				return written, fmt.Errorf("create spill file: %w", err)
			}
			w.file = f
		}
	}
	if len(p) > 0 {
		n, err := w.file.Write(p)
		written += n
		if err != nil {
			return written, fmt.Errorf("write spill file: %w", err)
		}
	}
	w.n += int64(written)
	return written, nil
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int64 {
	return w.n
}

// Stream finalizes the writer into a readable CachedStream. The writer
// must not be used afterwards.
func (w *Writer) Stream() (*CachedStream, error) {
	if w.done {
		return nil, fmt.Errorf("streamio: stream already finalized")
	}
	w.done = true
	return &CachedStream{
		mem:  w.mem.Bytes(),
		file: w.file,
		size: w.n,
	}, nil
}

// Discard releases everything written without producing a stream.
func (w *Writer) Discard() {
	if w.done {
		return
	}
	w.done = true
	w.mem.Reset()
	if w.file != nil {
		name := w.file.Name()
		w.file.Close()
		w.file = nil
		os.Remove(name)
	}
}

var _ io.Writer = (*Writer)(nil)
