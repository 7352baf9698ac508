package streamio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Config controls where buffered content lives.
type Config struct {
	MemoryThreshold int    // Bytes kept in memory before spilling to disk.
	TempDir         string // Directory for spill files ("" = os.TempDir).
}

// DefaultConfig returns sensible buffering defaults.
func DefaultConfig() Config {
	return Config{
		MemoryThreshold: 1 << 20, // 1MB
	}
}

// ErrDisposed is returned when reading a stream after Dispose.
var ErrDisposed = errors.New("streamio: stream disposed")

// CachedStream is a re-readable byte buffer. The first MemoryThreshold
// bytes live in memory; anything beyond spills to a temp file that is
// deleted on Dispose. Rewind resets the cursor to zero at any time.
type CachedStream struct {
	mem      []byte
	file     *os.File // nil when fully in memory
	size     int64
	pos      int64
	disposed bool
}

// Open drains r into a new CachedStream.
func Open(r io.Reader, cfg Config) (*CachedStream, error) {
	if cfg.MemoryThreshold <= 0 {
		cfg.MemoryThreshold = DefaultConfig().MemoryThreshold
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, int64(cfg.MemoryThreshold)))
	if err != nil {
		return nil, fmt.Errorf("buffer content: %w", err)
	}

	s := &CachedStream{mem: buf.Bytes(), size: n}

	if n == int64(cfg.MemoryThreshold) {
		// There may be more; spill the rest to disk.
		f, err := os.CreateTemp(cfg.TempDir, "docpipe-stream-*.bin")
		if err != nil {
			return nil, fmt.Errorf("create spill file: %w", err)
		}
		written, err := io.Copy(f, r)
		if err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, fmt.Errorf("spill content: %w", err)
		}
		if written == 0 {
			// Input fit exactly in memory.
			f.Close()
			os.Remove(f.Name())
			return s, nil
		}
		s.file = f
		s.size += written
	}

	return s, nil
}

// OpenBytes wraps an in-memory slice, spilling only when it exceeds the
// configured threshold.
func OpenBytes(b []byte, cfg Config) (*CachedStream, error) {
	threshold := cfg.MemoryThreshold
	if threshold <= 0 {
		threshold = DefaultConfig().MemoryThreshold
	}
	if len(b) <= threshold {
		return &CachedStream{mem: b, size: int64(len(b))}, nil
	}
	return Open(bytes.NewReader(b), cfg)
}

// OpenFile buffers the contents of a file on disk.
func OpenFile(path string, cfg Config) (*CachedStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer f.Close()
	return Open(f, cfg)
}

// Read implements io.Reader over the memory prefix and spill file.
func (s *CachedStream) Read(p []byte) (int, error) {
	if s.disposed {
		return 0, ErrDisposed
	}
	if s.pos >= s.size {
		return 0, io.EOF
	}

	var n int
	if s.pos < int64(len(s.mem)) {
		n = copy(p, s.mem[s.pos:])
	} else if s.file != nil {
		var err error
		n, err = s.file.ReadAt(p, s.pos-int64(len(s.mem)))
		if err != nil && err != io.EOF {
			return n, fmt.Errorf("read spill file: %w", err)
		}
	}
	s.pos += int64(n)
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Rewind resets the read cursor to position zero. All previously read
// bytes remain available no matter how often this is called.
func (s *CachedStream) Rewind() error {
	if s.disposed {
		return ErrDisposed
	}
	s.pos = 0
	return nil
}

// Size returns the total content length in bytes.
func (s *CachedStream) Size() int64 {
	return s.size
}

// Empty reports whether the stream holds no content.
func (s *CachedStream) Empty() bool {
	return s.size == 0
}

// Dispose releases memory and deletes any spill file. Safe to call more
// than once.
func (s *CachedStream) Dispose() error {
	if s.disposed {
		return nil
	}
	s.disposed = true
	s.mem = nil
	if s.file != nil {
		name := s.file.Name()
		s.file.Close()
		s.file = nil
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove spill file: %w", err)
		}
	}
	return nil
}
