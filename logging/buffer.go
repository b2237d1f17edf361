package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
)

// BufferedHandler is a text slog.Handler that keeps its output in memory.
// Tests use it to assert on what the engine logged. Handlers derived with
// WithAttrs or WithGroup share the parent's buffer.
type BufferedHandler struct {
	out   *lockedBuffer
	inner slog.Handler
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// NewBufferedHandler returns a handler writing text records to memory.
// opts may be nil, in which case every level is recorded.
func NewBufferedHandler(opts *slog.HandlerOptions) *BufferedHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}
	out := &lockedBuffer{}
	return &BufferedHandler{out: out, inner: slog.NewTextHandler(out, opts)}
}

func (h *BufferedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *BufferedHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *BufferedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &BufferedHandler{out: h.out, inner: h.inner.WithAttrs(attrs)}
}

func (h *BufferedHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &BufferedHandler{out: h.out, inner: h.inner.WithGroup(name)}
}

// String returns everything logged so far.
func (h *BufferedHandler) String() string {
	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	return h.out.buf.String()
}

// Contains reports whether the captured output contains s.
func (h *BufferedHandler) Contains(s string) bool {
	return strings.Contains(h.String(), s)
}

// Reset discards the captured output.
func (h *BufferedHandler) Reset() {
	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	h.out.buf.Reset()
}
