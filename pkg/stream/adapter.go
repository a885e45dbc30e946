package stream

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// WriterHandler adapts an io.Writer to the Handler interface. When the writer
// is also an http.Flusher every chunk is flushed as soon as it is written.
type WriterHandler struct {
	writer  io.Writer
	flusher http.Flusher
	buffer  bytes.Buffer
	started bool
	mu      sync.Mutex
}

// NewWriterHandler creates a new handler that writes to an io.Writer
func NewWriterHandler(w io.Writer) *WriterHandler {
	h := &WriterHandler{writer: w}
	if f, ok := w.(http.Flusher); ok {
		h.flusher = f
	}
	return h
}

// OnStart records that output has begun
func (w *WriterHandler) OnStart() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.started = true
}

// OnChunk writes the chunk to the underlying writer
func (w *WriterHandler) OnChunk(chunk []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.started = true
	if _, err := w.writer.Write(chunk); err != nil {
		return err
	}
	w.buffer.Write(chunk)
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// OnComplete is a no-op; everything was written as it arrived.
func (w *WriterHandler) OnComplete(string) error {
	return nil
}

// OnError is a no-op; errors surface from Write.
func (w *WriterHandler) OnError(error) {}

// Started reports whether any output has been produced.
func (w *WriterHandler) Started() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// GetContent returns the accumulated content
func (w *WriterHandler) GetContent() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer.String()
}

// MultiHandler broadcasts to multiple handlers, like io.MultiWriter.
type MultiHandler struct {
	handlers []Handler
}

// NewMultiHandler creates a handler that forwards to multiple handlers
func NewMultiHandler(handlers ...Handler) *MultiHandler {
	return &MultiHandler{
		handlers: handlers,
	}
}

// OnStart forwards the start signal to all handlers
func (m *MultiHandler) OnStart() {
	for _, h := range m.handlers {
		h.OnStart()
	}
}

// OnChunk forwards the chunk to all handlers
func (m *MultiHandler) OnChunk(chunk []byte) error {
	for _, h := range m.handlers {
		if err := h.OnChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

// OnComplete forwards completion to all handlers
func (m *MultiHandler) OnComplete(finalContent string) error {
	for _, h := range m.handlers {
		if err := h.OnComplete(finalContent); err != nil {
			return err
		}
	}
	return nil
}

// OnError forwards errors to all handlers
func (m *MultiHandler) OnError(err error) {
	for _, h := range m.handlers {
		h.OnError(err)
	}
}

var (
	_ Handler = (*WriterHandler)(nil)
	_ Handler = (*MultiHandler)(nil)
)
