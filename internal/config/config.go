// Package config reads runtime settings from the environment and loads
// pattern files.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime settings. Command-line flags override these values.
type Config struct {
	BPM        float64
	Steps      int
	TargetRate int
	OutputRate int
	StorageDir string
	Owner      string
	LogLevel   string
}

// Load reads BEATGRID_* environment variables, falling back to defaults for
// anything unset or unparsable.
func Load() Config {
	return Config{
		BPM:        envFloat("BEATGRID_BPM", 120),
		Steps:      envInt("BEATGRID_STEPS", 16),
		TargetRate: envInt("BEATGRID_TARGET_RATE", 16000),
		OutputRate: envInt("BEATGRID_OUTPUT_RATE", 44100),
		StorageDir: envStr("BEATGRID_STORAGE_DIR", "samples"),
		Owner:      envStr("BEATGRID_OWNER", "local"),
		LogLevel:   envStr("BEATGRID_LOG_LEVEL", "info"),
	}
}

// Level maps LogLevel onto a slog level. Unknown names mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}
