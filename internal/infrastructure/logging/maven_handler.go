package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ANSI color codes used by the console handler.
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

// MavenHandler formats records Maven-style for the console:
//
//	[LEVEL] [stage] [HH:MM:SS] message key=value key=value
//
// The stage bracket comes from a "stage" attribute attached via
// NewLoggerForStage; it is lifted out of the key=value list. Group names from
// WithGroup qualify their attribute keys ("run.id=...").
type MavenHandler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Level

	stage  string
	colors bool
	groups []string
	attrs  []slog.Attr
}

// NewMavenHandler creates a Maven-style console handler. Colors are enabled
// only when w is a terminal.
func NewMavenHandler(w io.Writer, opts *slog.HandlerOptions) *MavenHandler {
	h := &MavenHandler{
		w:      w,
		mu:     &sync.Mutex{},
		level:  slog.LevelInfo,
		colors: isTerminal(w),
	}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level.Level()
	}
	return h
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Enabled reports whether the handler handles records at the given level.
func (h *MavenHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes one record.
func (h *MavenHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	h.bracket(&buf, levelString(r.Level), levelColor(r.Level))
	if h.stage != "" {
		buf.WriteString(" ")
		h.bracket(&buf, h.stage, ansiCyan)
	}
	buf.WriteString(" ")
	h.bracket(&buf, r.Time.Format("15:04:05"), ansiGray)

	buf.WriteString(" ")
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.appendAttr(&buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, a)
		return true
	})
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

// bracket writes "[text]", colored when the writer is a terminal.
func (h *MavenHandler) bracket(buf *strings.Builder, text, color string) {
	if h.colors {
		buf.WriteString(color)
	}
	buf.WriteString("[")
	buf.WriteString(text)
	buf.WriteString("]")
	if h.colors {
		buf.WriteString(ansiReset)
	}
}

// appendAttr writes one key=value pair, the key qualified by the open groups.
// A record-level stage attr is dropped; the stage already rendered as a
// bracket.
func (h *MavenHandler) appendAttr(buf *strings.Builder, a slog.Attr) {
	if a.Key == "stage" {
		return
	}
	buf.WriteString(" ")
	for _, g := range h.groups {
		buf.WriteString(g)
		buf.WriteString(".")
	}
	buf.WriteString(a.Key)
	buf.WriteString("=")
	buf.WriteString(fmt.Sprint(a.Value.Any()))
}

// WithAttrs returns a handler carrying the extra attributes. A "stage" attr
// becomes the bracket tag instead of a key=value pair.
func (h *MavenHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		if a.Key == "stage" {
			c.stage = a.Value.String()
			continue
		}
		c.attrs = append(c.attrs, a)
	}
	return c
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *MavenHandler) WithGroup(name string) slog.Handler {
	c := h.clone()
	c.groups = append(c.groups, name)
	return c
}

func (h *MavenHandler) clone() *MavenHandler {
	return &MavenHandler{
		w:      h.w,
		mu:     h.mu,
		level:  h.level,
		stage:  h.stage,
		colors: h.colors,
		groups: append([]string(nil), h.groups...),
		attrs:  append([]slog.Attr(nil), h.attrs...),
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiCyan
	default:
		return ansiGray
	}
}

func levelString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}
