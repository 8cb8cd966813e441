package log

import (
	"context"
	"log/slog"
	"testing"

	"github.com/croessner/luascope/definitions"
)

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name           string
		configLogLevel int
		formatJSON     bool
		useColor       bool
		instance       string
		debugEnabled   bool
		errorEnabled   bool
	}{
		{
			name:           "LogLevelNone, JSON format",
			configLogLevel: definitions.LogLevelNone,
			formatJSON:     true,
			instance:       "none_json",
			debugEnabled:   false,
			errorEnabled:   false,
		},
		{
			name:           "LogLevelError, text format",
			configLogLevel: definitions.LogLevelError,
			instance:       "error_text",
			debugEnabled:   false,
			errorEnabled:   true,
		},
		{
			name:           "LogLevelWarn, colored text",
			configLogLevel: definitions.LogLevelWarn,
			useColor:       true,
			instance:       "warn_color",
			debugEnabled:   false,
			errorEnabled:   true,
		},
		{
			name:           "LogLevelInfo, JSON format",
			configLogLevel: definitions.LogLevelInfo,
			formatJSON:     true,
			instance:       "info_json",
			debugEnabled:   false,
			errorEnabled:   true,
		},
		{
			name:           "LogLevelDebug, text format",
			configLogLevel: definitions.LogLevelDebug,
			instance:       "debug_text",
			debugEnabled:   true,
			errorEnabled:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetupLogging(tt.configLogLevel, tt.formatJSON, tt.useColor, "light", tt.instance)

			if Logger == nil {
				t.Fatal("expected Logger to be initialized")
			}

			ctx := context.Background()
			if got := Logger.Enabled(ctx, slog.LevelDebug); got != tt.debugEnabled {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugEnabled)
			}

			if got := Logger.Enabled(ctx, slog.LevelError); got != tt.errorEnabled {
				t.Errorf("error enabled = %v, want %v", got, tt.errorEnabled)
			}
		})
	}
}

func TestSlogLevelMapping(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  slog.Level
	}{
		{name: "none", level: definitions.LogLevelNone, want: slog.LevelError + 4},
		{name: "error", level: definitions.LogLevelError, want: slog.LevelError},
		{name: "warn", level: definitions.LogLevelWarn, want: slog.LevelWarn},
		{name: "info", level: definitions.LogLevelInfo, want: slog.LevelInfo},
		{name: "debug", level: definitions.LogLevelDebug, want: slog.LevelDebug},
		{name: "out of range", level: 42, want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slogLevel(tt.level); got != tt.want {
				t.Errorf("slogLevel(%d) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}
