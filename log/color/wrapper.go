// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package color provides a slog.Handler that keeps the exact layout of
// slog.TextHandler while wrapping each finished line in an ANSI foreground
// color chosen by record level.
package color

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	ansiReset = "\x1b[0m"

	// Standard intensity foreground colors (work better on light backgrounds)
	fgRed    = "\x1b[31m"
	fgYellow = "\x1b[33m"
	fgGreen  = "\x1b[32m"
	fgCyan   = "\x1b[36m"

	// Bright/high-intensity foreground colors (better on dark backgrounds)
	fgBrightRed    = "\x1b[91m"
	fgBrightYellow = "\x1b[93m"
	fgBrightGreen  = "\x1b[92m"
	fgBrightCyan   = "\x1b[96m"
)

var renderBufs = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// ThemeColorMap returns a level to ANSI color mapping for the given theme.
// Known themes are "dark" and "light" (case-insensitive); anything else
// falls back to the light mapping.
func ThemeColorMap(theme string) map[slog.Level]string {
	if strings.EqualFold(strings.TrimSpace(theme), "dark") {
		return map[slog.Level]string{
			slog.LevelDebug: fgBrightCyan,
			slog.LevelInfo:  fgBrightGreen,
			slog.LevelWarn:  fgBrightYellow,
			slog.LevelError: fgBrightRed,
		}
	}

	return map[slog.Level]string{
		slog.LevelDebug: fgCyan,
		slog.LevelInfo:  fgGreen,
		slog.LevelWarn:  fgYellow,
		slog.LevelError: fgRed,
	}
}

// LineWrapper renders records through slog.TextHandler into a scratch buffer
// and writes the whole line colored to its output writer.
type LineWrapper struct {
	out    io.Writer
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
	groups []string
	colors map[slog.Level]string
}

// NewLineWrapper creates a LineWrapper. A nil colors map selects the light
// theme defaults.
func NewLineWrapper(out io.Writer, opts *slog.HandlerOptions, colors map[slog.Level]string) *LineWrapper {
	if colors == nil {
		colors = ThemeColorMap("")
	}

	return &LineWrapper{out: out, opts: opts, colors: colors}
}

// Enabled reports whether records at lvl pass the configured minimum level.
func (h *LineWrapper) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.opts == nil || h.opts.Level == nil {
		return true
	}

	return lvl >= h.opts.Level.Level()
}

// Handle renders the record with a TextHandler carrying the accumulated
// groups and attributes, then writes the colored line.
func (h *LineWrapper) Handle(ctx context.Context, r slog.Record) error {
	buf := renderBufs.Get().(*bytes.Buffer)
	buf.Reset()

	defer renderBufs.Put(buf)

	var inner slog.Handler = slog.NewTextHandler(buf, h.opts)

	for _, group := range h.groups {
		inner = inner.WithGroup(group)
	}

	if len(h.attrs) > 0 {
		inner = inner.WithAttrs(h.attrs)
	}

	if err := inner.Handle(ctx, r); err != nil {
		return err
	}

	// Reset before the final newline so the color never bleeds into the
	// next line.
	line := buf.Bytes()
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}

	if _, err := io.WriteString(h.out, h.pickColor(r.Level)); err != nil {
		return err
	}

	if _, err := h.out.Write(line); err != nil {
		return err
	}

	_, err := io.WriteString(h.out, ansiReset+"\n")

	return err
}

// WithAttrs returns a handler that renders attrs on every record.
func (h *LineWrapper) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	if len(attrs) > 0 {
		cp.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	}

	return &cp
}

// WithGroup returns a handler that opens the named group on every record.
func (h *LineWrapper) WithGroup(name string) slog.Handler {
	cp := *h
	cp.groups = append(append([]string(nil), h.groups...), name)

	return &cp
}

func (h *LineWrapper) pickColor(lvl slog.Level) string {
	if c, ok := h.colors[lvl]; ok {
		return c
	}

	switch {
	case lvl >= slog.LevelError:
		return fgRed
	case lvl <= slog.LevelDebug:
		return fgCyan
	default:
		return fgGreen
	}
}

var _ slog.Handler = (*LineWrapper)(nil)
