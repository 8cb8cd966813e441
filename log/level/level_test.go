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

package level

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

type record struct {
	ctx   context.Context
	level slog.Level
	msg   string
	attrs []slog.Attr
}

type memHandler struct {
	mu      sync.Mutex
	min     slog.Leveler
	records []record
}

func (h *memHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.min == nil {
		return true
	}

	return lvl >= h.min.Level()
}

func (h *memHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	h.records = append(h.records, record{ctx: ctx, level: r.Level, msg: r.Message, attrs: attrs})

	return nil
}

func (h *memHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *memHandler) WithGroup(_ string) slog.Handler      { return h }

func attrMap(attrs []slog.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.String()
	}

	return m
}

func TestLogExtractsMessage(t *testing.T) {
	h := &memHandler{min: slog.LevelInfo}
	logger := slog.New(h)

	if err := Info(logger).Log("msg", "hello", "k", "v", "n", 1); err != nil {
		t.Fatalf("Log returned error: %v", err)
	}

	if len(h.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(h.records))
	}

	r := h.records[0]
	if r.level != slog.LevelInfo {
		t.Errorf("expected level info, got %v", r.level)
	}

	if r.msg != "hello" {
		t.Errorf("expected message 'hello', got %q", r.msg)
	}

	got := attrMap(r.attrs)
	for k, want := range map[string]string{"k": "v", "n": "1"} {
		if got[k] != want {
			t.Errorf("attr %q mismatch: want %v got %v", k, want, got[k])
		}
	}
}

func TestLogDefaultMessages(t *testing.T) {
	tests := []struct {
		name string
		make func(l *slog.Logger) Logger
		want string
	}{
		{name: "debug", make: Debug, want: "debug"},
		{name: "info", make: Info, want: "info"},
		{name: "warn", make: Warn, want: "warn"},
		{name: "error", make: Error, want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &memHandler{min: slog.LevelDebug}
			logger := slog.New(h)

			if err := tt.make(logger).Log("k", "v"); err != nil {
				t.Fatalf("Log returned error: %v", err)
			}

			if len(h.records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(h.records))
			}

			if h.records[0].msg != tt.want {
				t.Errorf("expected default message %q, got %q", tt.want, h.records[0].msg)
			}
		})
	}
}

func TestLogSkipsMalformedKeyvals(t *testing.T) {
	h := &memHandler{min: slog.LevelDebug}
	logger := slog.New(h)

	if err := Debug(logger).Log("msg", "m", "ok", 1, 123, "x", "trailing"); err != nil {
		t.Fatalf("Log returned error: %v", err)
	}

	if len(h.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(h.records))
	}

	got := attrMap(h.records[0].attrs)
	if len(got) != 1 || got["ok"] != "1" {
		t.Errorf("unexpected attrs: %+v", got)
	}
}

func TestLogGuardsTypedNil(t *testing.T) {
	h := &memHandler{min: slog.LevelDebug}
	logger := slog.New(h)

	var p *record

	if err := Error(logger).Log("msg", "m", "ptr", p, "plain", nil); err != nil {
		t.Fatalf("Log returned error: %v", err)
	}

	got := attrMap(h.records[0].attrs)
	if got["ptr"] != "<nil>" || got["plain"] != "<nil>" {
		t.Errorf("expected nil guards, got %+v", got)
	}
}

func TestWithContextForwardsContext(t *testing.T) {
	h := &memHandler{min: slog.LevelDebug}
	logger := slog.New(h)

	type ctxKey struct{}

	ctx := context.WithValue(context.Background(), ctxKey{}, "val")
	if err := WithContext(ctx, logger).Log("k", "v"); err != nil {
		t.Fatalf("Log returned error: %v", err)
	}

	if len(h.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(h.records))
	}

	if h.records[0].ctx == nil {
		t.Fatal("expected context to be forwarded to handler")
	}
}
