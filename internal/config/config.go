// internal/config/config.go

// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all tunables for the converter. Everything has a default;
// no variable is required.
type Config struct {
	// FFmpegPath overrides the ffmpeg binary used by the ffmpeg backend.
	FFmpegPath string `env:"VIDGIF_FFMPEG_PATH, default=ffmpeg"`

	// TempDir is where palette files and other scratch artifacts go.
	// Empty means the system temp directory.
	TempDir string `env:"VIDGIF_TEMP_DIR"`

	// TUIMaxDuration is the soft duration cap (seconds) for the terminal
	// front end. Longer sources disable conversion there; the CLI has no
	// limit.
	TUIMaxDuration float64 `env:"VIDGIF_TUI_MAX_DURATION, default=30"`

	// WarnSizeMB triggers the estimated-size warning in the front ends.
	WarnSizeMB float64 `env:"VIDGIF_WARN_SIZE_MB, default=100"`

	// Logging settings.
	LogFormat string `env:"VIDGIF_LOG_FORMAT, default=text"` // "json" or "text"
	LogLevel  string `env:"VIDGIF_LOG_LEVEL, default=warn"`  // "debug", "info", "warn", "error"
}

// Load reads configuration from the environment.
func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return cfg, nil
}

// NewLogger creates a structured logger on stderr based on the
// configuration, so log lines never mix with the progress bar on stdout.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
