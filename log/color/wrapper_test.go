package color

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLineWrapperColorsWholeLine(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewLineWrapper(buf, &slog.HandlerOptions{Level: slog.LevelDebug}, nil)
	logger := slog.New(h)

	logger.Error("boom", "k", "v")

	out := buf.String()
	if !strings.HasPrefix(out, fgRed) {
		t.Errorf("expected line to start with the error color, got %q", out)
	}

	if !strings.HasSuffix(out, ansiReset+"\n") {
		t.Errorf("expected color reset before the newline, got %q", out)
	}

	if !strings.Contains(out, "msg=boom") || !strings.Contains(out, "k=v") {
		t.Errorf("expected TextHandler layout to be preserved, got %q", out)
	}
}

func TestLineWrapperRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewLineWrapper(buf, &slog.HandlerOptions{Level: slog.LevelWarn}, nil)
	logger := slog.New(h)

	logger.Info("dropped")

	if buf.Len() != 0 {
		t.Errorf("expected info record below warn to be dropped, got %q", buf.String())
	}
}

func TestLineWrapperKeepsAttrsAndGroups(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewLineWrapper(buf, &slog.HandlerOptions{Level: slog.LevelDebug}, ThemeColorMap("dark"))
	logger := slog.New(h).With("instance", "test").WithGroup("lua")

	logger.Warn("w", "top", 3)

	out := buf.String()
	if !strings.Contains(out, "instance=test") {
		t.Errorf("expected bound attr in output, got %q", out)
	}

	if !strings.Contains(out, "lua.top=3") {
		t.Errorf("expected group-qualified attr in output, got %q", out)
	}
}

func TestThemeColorMap(t *testing.T) {
	tests := []struct {
		name  string
		theme string
		want  string
	}{
		{name: "light default", theme: "", want: fgRed},
		{name: "light explicit", theme: "light", want: fgRed},
		{name: "dark", theme: "dark", want: fgBrightRed},
		{name: "dark padded", theme: " DARK ", want: fgBrightRed},
		{name: "unknown", theme: "solarized", want: fgRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ThemeColorMap(tt.theme)[slog.LevelError]; got != tt.want {
				t.Errorf("ThemeColorMap(%q)[error] = %q, want %q", tt.theme, got, tt.want)
			}
		})
	}
}

func TestPickColorFallbacks(t *testing.T) {
	h := NewLineWrapper(&bytes.Buffer{}, nil, map[slog.Level]string{})

	if got := h.pickColor(slog.LevelError + 4); got != fgRed {
		t.Errorf("expected red for levels above error, got %q", got)
	}

	if got := h.pickColor(slog.LevelDebug - 4); got != fgCyan {
		t.Errorf("expected cyan for levels below debug, got %q", got)
	}

	if got := h.pickColor(slog.LevelInfo); got != fgGreen {
		t.Errorf("expected green for mid levels, got %q", got)
	}
}

func TestLineWrapperConcurrentUse(t *testing.T) {
	buf := &bytes.Buffer{}
	mu := &lockedWriter{w: buf}
	logger := slog.New(NewLineWrapper(mu, &slog.HandlerOptions{Level: slog.LevelDebug}, nil))

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()

			for j := 0; j < 25; j++ {
				logger.Debug("tick", "at", time.Now().UnixNano())
			}
		}()
	}

	for i := 0; i < 4; i++ {
		<-done
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 100 {
		t.Fatalf("expected 100 lines, got %d", len(lines))
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.w.Write(p)
}
