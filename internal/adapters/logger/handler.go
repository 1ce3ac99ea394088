package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/bild/internal/ui/output"
	"go.trai.ch/bild/internal/ui/style"
)

// PrettyHandler is a slog.Handler for terminals: one colored line per record,
// the message followed by key=value pairs.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	fields string // attrs bound by WithAttrs, already rendered
	prefix string // group path, "" or ending in "."
}

// NewPrettyHandler creates a PrettyHandler on w. A nil w means os.Stderr and
// nil opts log at info level.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w),
		level: level,
	}
}

// Enabled implements slog.Handler.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var line strings.Builder
	color := style.Slate

	switch {
	case r.Level >= slog.LevelError:
		line.WriteString(style.Cross + " ")
		color = style.Red
	case r.Level >= slog.LevelWarn:
		line.WriteString(style.Warning + " ")
		color = style.Yellow
	}
	line.WriteString(r.Message)
	line.WriteString(h.fields)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&line, h.prefix, a)
		return true
	})

	_, err := h.out.WriteString(h.out.String(line.String()).Foreground(color.RGB()).String() + "\n")
	return err
}

// WithAttrs implements slog.Handler.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	var b strings.Builder
	b.WriteString(h.fields)
	for _, a := range attrs {
		appendAttr(&b, h.prefix, a)
	}

	next := *h
	next.fields = b.String()
	return &next
}

// WithGroup implements slog.Handler. Groups nest: a.b.key=value.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// appendAttr writes " prefix.key=value" to b. Group values are flattened
// and values with blanks or quotes are quoted.
func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, member := range a.Value.Group() {
			appendAttr(b, prefix, member)
		}
		return
	}

	value := a.Value.String()
	if value == "" || strings.ContainsAny(value, " \t\n\"=") {
		value = strconv.Quote(value)
	}

	b.WriteString(" ")
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteString("=")
	b.WriteString(value)
}
