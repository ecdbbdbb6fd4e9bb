package engine

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/VanDung-dev/parquet-core/pqerr"
)

// Source is a random access byte source. ReadAt must be safe for concurrent
// use when several readers share one source.
type Source interface {
	io.ReaderAt
	Size() int64
}

// BytesSource serves reads from memory. It is safe for concurrent use.
type BytesSource struct {
	r *bytes.Reader
}

// NewBytesSource returns a Source over b. b must not be modified afterwards.
func NewBytesSource(b []byte) *BytesSource {
	return &BytesSource{r: bytes.NewReader(b)}
}

func (s *BytesSource) ReadAt(p []byte, off int64) (int, error) { return s.r.ReadAt(p, off) }
func (s *BytesSource) Size() int64                              { return s.r.Size() }

// FileSource is a Source backed by an open file. os.File.ReadAt is safe for
// concurrent use.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFile opens path for reading.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pqerr.Wrapf(pqerr.IO, err, "failed to open %s", path)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, pqerr.Wrapf(pqerr.IO, err, "failed to stat %s", path)
	}
	return &FileSource{f: f, size: st.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }
func (s *FileSource) Size() int64                              { return s.size }
func (s *FileSource) Close() error                             { return s.f.Close() }

// trackedSource remembers the first read failure other than io.EOF so the
// reader can tell source malfunctions from malformed content.
type trackedSource struct {
	Source
	mu  sync.Mutex
	err error
}

func (s *trackedSource) ReadAt(p []byte, off int64) (int, error) {
	n, err := s.Source.ReadAt(p, off)
	if err != nil && err != io.EOF {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
	return n, err
}

func (s *trackedSource) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
