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

package log

import (
	"log/slog"
	"os"
	"sync"

	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/log/color"
)

var (
	mu sync.Mutex

	// Logger is used for all messages that are printed to stdout. It starts
	// with a plain text handler at info level so library users get sane
	// output without calling SetupLogging.
	Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
)

// SetupLogging initializes the global "Logger" object.
func SetupLogging(configLogLevel int, formatJSON bool, useColor bool, colorTheme string, instance string) {
	mu.Lock()

	defer mu.Unlock()

	opts := &slog.HandlerOptions{Level: slogLevel(configLogLevel)}

	var handler slog.Handler

	switch {
	case formatJSON:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case useColor:
		handler = color.NewLineWrapper(os.Stdout, opts, color.ThemeColorMap(colorTheme))
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(handler).With(definitions.LogKeyInstance, instance)
}

// slogLevel maps the numeric verbosity level onto a slog.Level. LogLevelNone
// maps above error so that nothing is emitted.
func slogLevel(configLogLevel int) slog.Level {
	switch configLogLevel {
	case definitions.LogLevelNone:
		return slog.LevelError + 4
	case definitions.LogLevelError:
		return slog.LevelError
	case definitions.LogLevelWarn:
		return slog.LevelWarn
	case definitions.LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
