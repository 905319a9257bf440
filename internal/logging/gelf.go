package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Graylog2/go-gelf/gelf"
)

// MessageWriter sends one GELF message. *gelf.Writer satisfies it.
type MessageWriter interface {
	WriteMessage(m *gelf.Message) error
}

// GelfHandler ships log records to Graylog as GELF messages.
// Attributes become GELF additional fields ("_key").
type GelfHandler struct {
	w      MessageWriter
	level  slog.Leveler
	host   string
	attrs  []slog.Attr
	prefix string
}

// NewGelfWriter dials the Graylog input at addr (host:port, UDP).
func NewGelfWriter(addr, facility string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create GELF writer: %w", err)
	}
	w.Facility = facility
	return w, nil
}

// NewGelfHandler creates a handler writing records at or above level to w.
func NewGelfHandler(w MessageWriter, level slog.Leveler) *GelfHandler {
	host, err := os.Hostname()
	if err != nil {
		host = "orbat"
	}
	return &GelfHandler{w: w, level: level, host: host}
}

// Enabled reports whether level meets the handler's minimum.
func (h *GelfHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle converts the record to a GELF message and sends it.
func (h *GelfHandler) Handle(_ context.Context, r slog.Record) error {
	msg := &gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    r.Message,
		TimeUnix: float64(r.Time.UnixNano()) / 1e9,
		Extra:    make(map[string]interface{}, len(h.attrs)+r.NumAttrs()),
	}
	switch {
	case r.Level >= slog.LevelError:
		msg.Level = 3
	case r.Level >= slog.LevelWarn:
		msg.Level = 4
	case r.Level >= slog.LevelInfo:
		msg.Level = 6
	default:
		msg.Level = 7
	}

	for _, a := range h.attrs {
		addExtra(msg.Extra, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addExtra(msg.Extra, h.prefix, a)
		return true
	})

	return h.w.WriteMessage(msg)
}

// WithAttrs returns a handler that adds attrs to every message.
func (h *GelfHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

// WithGroup prefixes the keys of later attributes with name.
func (h *GelfHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func addExtra(extra map[string]interface{}, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addExtra(extra, prefix+a.Key+".", ga)
		}
		return
	}
	extra["_"+prefix+a.Key] = a.Value.Any()
}
