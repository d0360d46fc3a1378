package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// shortRequestIDLen is how much of a correlation id the console shows. The
// JSON event log keeps the full value.
const shortRequestIDLen = 8

// consoleHandler renders one line per record:
//
//	2026-03-01T12:00:00Z INFO ophim: search finished keyword=x candidates=3 req=1a2b3c4d
//
// The component and correlation id are lifted out of the attribute list so
// lines from concurrent catalog pipelines stay easy to scan.
type consoleHandler struct {
	out       *lockedWriter
	level     slog.Leveler
	addSource bool

	component string
	requestID string
	group     string
	// fields holds " key=value" pairs already rendered by WithAttrs.
	fields []byte
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) write(p []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err := lw.w.Write(p)
	return err
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	component, requestID := h.component, h.requestID
	var fields []byte
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendConsoleAttr(fields, h.group, attr, &component, &requestID)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf := make([]byte, 0, 96+len(h.fields)+len(fields))
	buf = ts.UTC().AppendFormat(buf, time.RFC3339)
	buf = append(buf, ' ')
	buf = append(buf, record.Level.String()...)
	buf = append(buf, ' ')
	if component != "" {
		buf = append(buf, component...)
		buf = append(buf, ": "...)
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf = append(buf, msg...)
	} else {
		buf = append(buf, "(no message)"...)
	}
	buf = append(buf, h.fields...)
	buf = append(buf, fields...)
	if requestID != "" {
		buf = append(buf, " req="...)
		buf = append(buf, shortRequestID(requestID)...)
	}
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			buf = append(buf, " ("...)
			buf = append(buf, filepath.Base(src.File)...)
			buf = append(buf, ':')
			buf = strconv.AppendInt(buf, int64(src.Line), 10)
			buf = append(buf, ')')
		}
	}
	buf = append(buf, '\n')
	return h.out.write(buf)
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = slices.Clone(h.fields)
	for _, attr := range attrs {
		next.fields = appendConsoleAttr(next.fields, h.group, attr, &next.component, &next.requestID)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}

func appendConsoleAttr(buf []byte, group string, attr slog.Attr, component, requestID *string) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := group
		if attr.Key != "" {
			inner = joinKey(group, attr.Key)
		}
		for _, member := range attr.Value.Group() {
			buf = appendConsoleAttr(buf, inner, member, component, requestID)
		}
		return buf
	}
	if group == "" {
		switch attr.Key {
		case FieldComponent:
			*component = attr.Value.String()
			return buf
		case FieldCorrelationID:
			*requestID = attr.Value.String()
			return buf
		}
	}
	buf = append(buf, ' ')
	buf = append(buf, joinKey(group, attr.Key)...)
	buf = append(buf, '=')
	return append(buf, consoleValue(attr.Value)...)
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

func consoleValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindDuration:
		d := v.Duration()
		if d >= time.Millisecond {
			d = d.Round(time.Millisecond)
		}
		return d.String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		return quoteIfNeeded(v.String())
	default:
		return quoteIfNeeded(v.String())
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func shortRequestID(id string) string {
	if len(id) > shortRequestIDLen {
		return id[:shortRequestIDLen]
	}
	return id
}
