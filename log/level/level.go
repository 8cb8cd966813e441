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

// Package level mimics the go-kit/log/level call pattern on top of the
// standard library's log/slog package.
//
// Call sites keep the familiar shape
//
//	level.Error(log.Logger).Log("msg", "boom", "key", value)
//
// while records are emitted through slog with structured attributes. A key
// "msg" holding a string becomes the record message; every other pair becomes
// an attribute. Non-string keys and an odd trailing key are dropped.
package level

import (
	"context"
	"log/slog"
	"reflect"
)

// Logger is the minimal keyvals logging interface shared with go-kit.
type Logger interface {
	Log(keyvals ...any) error
}

type leveled struct {
	logger *slog.Logger
	level  slog.Level
	ctx    context.Context
}

// Debug returns a Logger emitting at slog.LevelDebug.
func Debug(l *slog.Logger) Logger {
	return &leveled{logger: l, level: slog.LevelDebug}
}

// Info returns a Logger emitting at slog.LevelInfo.
func Info(l *slog.Logger) Logger {
	return &leveled{logger: l, level: slog.LevelInfo}
}

// Warn returns a Logger emitting at slog.LevelWarn.
func Warn(l *slog.Logger) Logger {
	return &leveled{logger: l, level: slog.LevelWarn}
}

// Error returns a Logger emitting at slog.LevelError.
func Error(l *slog.Logger) Logger {
	return &leveled{logger: l, level: slog.LevelError}
}

// WithContext attaches ctx to the records the returned Logger emits. The
// level defaults to info.
func WithContext(ctx context.Context, l *slog.Logger) Logger {
	return &leveled{logger: l, level: slog.LevelInfo, ctx: ctx}
}

// Log implements Logger.
func (e *leveled) Log(keyvals ...any) error {
	msg := defaultMessage(e.level)
	attrs := make([]slog.Attr, 0, len(keyvals)/2)

	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}

		value := keyvals[i+1]

		if key == "msg" {
			if s, ok := value.(string); ok {
				msg = s

				continue
			}
		}

		// slog.Any can panic on typed-nil values inside some handlers.
		if isNilValue(value) {
			attrs = append(attrs, slog.String(key, "<nil>"))

			continue
		}

		attrs = append(attrs, slog.Any(key, value))
	}

	e.logger.LogAttrs(e.ctx, e.level, msg, attrs...)

	return nil
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Map, reflect.Pointer, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

func defaultMessage(lvl slog.Level) string {
	switch lvl {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	default:
		return "info"
	}
}
