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

package util

import (
	"fmt"
	"runtime"
	"time"

	"github.com/croessner/luascope/config"
	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/log"
	"github.com/croessner/luascope/log/level"
)

// FormatDurationMs formats a time.Duration as milliseconds with a fixed
// precision. The output is always in milliseconds using three fractional
// digits, e.g., "12.345ms". This keeps latency units consistent across logs
// regardless of the duration magnitude.
func FormatDurationMs(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)

	return fmt.Sprintf("%.3fms", ms)
}

// ByteSize returns a human-readable representation of a byte count using
// binary units.
func ByteSize(bytes uint64) string {
	const unit = 1024

	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}

	div, exp := uint64(unit), 0

	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f%cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// DebugModule emits a debug record for the given module if debug logging is
// active and the module is listed in the configured debug modules. The
// calling function name is attached to every record.
func DebugModule(module definitions.DbgModule, keyvals ...any) {
	cfg := config.GetEnvironment()

	if cfg.Verbosity.Level() < definitions.LogLevelDebug {
		return
	}

	moduleName := module.String()
	if moduleName == "" {
		return
	}

	if !cfg.HasDebugModule(module) {
		return
	}

	keyvals = append(keyvals, "debug_module", moduleName)

	if counter, _, _, ok := runtime.Caller(1); ok {
		keyvals = append(keyvals, "function", runtime.FuncForPC(counter).Name())

		level.Debug(log.Logger).Log(keyvals...)
	}
}
