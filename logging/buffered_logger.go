package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// BufferedLogHandler implements slog.Handler and keeps every record in
// memory as a JSON line. Handlers derived through WithAttrs or WithGroup
// share the same buffer.
type BufferedLogHandler struct {
	level      slog.Leveler
	sink       *sink
	preAttrs   []slog.Attr
	groupNames []string
}

type sink struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	entries []Entry
}

// Entry is one captured log record.
type Entry struct {
	Level    string            `json:"level"`
	Message  string            `json:"message"`
	DateTime string            `json:"datetime"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// NewBufferedLogHandler creates a handler with an empty buffer. Pass nil to
// capture every level.
func NewBufferedLogHandler(opts *slog.HandlerOptions) *BufferedLogHandler {
	h := &BufferedLogHandler{sink: &sink{}}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled implements slog.Handler.
func (h *BufferedLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.level == nil {
		return true
	}
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *BufferedLogHandler) Handle(_ context.Context, r slog.Record) error {
	entry := Entry{
		Level:    r.Level.String(),
		Message:  r.Message,
		DateTime: r.Time.Format(time.DateTime),
	}

	add := func(attr slog.Attr) {
		if entry.Attrs == nil {
			entry.Attrs = make(map[string]string)
		}
		key := attr.Key
		if len(h.groupNames) > 0 {
			key = strings.Join(h.groupNames, ".") + "." + key
		}
		entry.Attrs[key] = attr.Value.String()
	}
	for _, attr := range h.preAttrs {
		add(attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		add(attr)
		return true
	})

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.buf.Write(data)
	h.sink.buf.WriteByte('\n')
	h.sink.entries = append(h.sink.entries, entry)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *BufferedLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.preAttrs), len(h.preAttrs)+len(attrs))
	copy(newAttrs, h.preAttrs)
	newAttrs = append(newAttrs, attrs...)

	return &BufferedLogHandler{
		level:      h.level,
		sink:       h.sink,
		preAttrs:   newAttrs,
		groupNames: h.groupNames,
	}
}

// WithGroup implements slog.Handler.
func (h *BufferedLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groupNames), len(h.groupNames)+1)
	copy(newGroups, h.groupNames)
	newGroups = append(newGroups, name)

	return &BufferedLogHandler{
		level:      h.level,
		sink:       h.sink,
		preAttrs:   h.preAttrs,
		groupNames: newGroups,
	}
}

// String returns all captured output.
func (h *BufferedLogHandler) String() string {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	return h.sink.buf.String()
}

// Entries returns a copy of the captured records.
func (h *BufferedLogHandler) Entries() []Entry {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	return append([]Entry(nil), h.sink.entries...)
}

// Count returns how many records were captured at the given level.
func (h *BufferedLogHandler) Count(level slog.Level) int {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	n := 0
	for _, e := range h.sink.entries {
		if e.Level == level.String() {
			n++
		}
	}
	return n
}

// Reset clears all captured output.
func (h *BufferedLogHandler) Reset() {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.buf.Reset()
	h.sink.entries = nil
}

// Contains reports whether the captured output contains s.
func (h *BufferedLogHandler) Contains(s string) bool {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	return bytes.Contains(h.sink.buf.Bytes(), []byte(s))
}
