package engine

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// Sink is an append only byte sink with an explicit flush.
type Sink interface {
	io.Writer
	Flush() error
}

// NewSink buffers w. Flush pushes buffered bytes to w.
func NewSink(w io.Writer) Sink {
	if s, ok := w.(Sink); ok {
		return s
	}
	return bufio.NewWriter(w)
}

// BufferSink collects the output in memory.
type BufferSink struct {
	bytes.Buffer
}

func (*BufferSink) Flush() error { return nil }

// LockedSink serializes access to a sink shared between writers. Each Write
// is one append.
type LockedSink struct {
	mu   sync.Mutex
	sink Sink
}

func NewLockedSink(s Sink) *LockedSink {
	return &LockedSink{sink: s}
}

func (s *LockedSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Write(p)
}

func (s *LockedSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Flush()
}

// sinkWriter adapts a Sink for the file writer, which closes its output.
// Closing only flushes; the sink stays owned by the caller. Write errors are
// remembered for classification.
type sinkWriter struct {
	sink Sink
	n    int64
	err  error
}

func (w *sinkWriter) Write(p []byte) (int, error) {
	n, err := w.sink.Write(p)
	w.n += int64(n)
	if err != nil && w.err == nil {
		w.err = err
	}
	return n, err
}

func (w *sinkWriter) Close() error { return nil }
