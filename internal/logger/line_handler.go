package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// TagKey is the attribute key used to tag a record with a service name.
// Tagged records render as [timestamp] [LEVEL] [tag] message.
const TagKey = "tag"

// LineHandler is a slog.Handler that writes one whole line per record.
// Lines are written under a mutex with a single Write call so concurrent
// relays cannot interleave partial output.
type LineHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
}

func NewLineHandler(w io.Writer, level slog.Level) *LineHandler {
	return &LineHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.Grow(len(r.Message) + 64)
	b.WriteByte('[')
	b.WriteString(r.Time.Format("2006-01-02 15:04:05"))
	b.WriteString("] [")
	b.WriteString(r.Level.String())
	b.WriteByte(']')

	tag := ""
	rest := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		if a.Key == TagKey {
			tag = a.Value.String()
			continue
		}
		rest = append(rest, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == TagKey {
			tag = a.Value.String()
			return true
		}
		rest = append(rest, a)
		return true
	})
	if tag != "" {
		b.WriteString(" [")
		b.WriteString(tag)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)
	for _, a := range rest {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%v", a.Value.Any())
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := &LineHandler{mu: h.mu, w: h.w, level: h.level}
	nh.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return nh
}

// WithGroup is accepted but groups are flattened; the line format is the
// contract, not the attribute hierarchy.
func (h *LineHandler) WithGroup(string) slog.Handler { return h }
