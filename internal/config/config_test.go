package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"BEATGRID_BPM", "BEATGRID_STEPS", "BEATGRID_TARGET_RATE", "BEATGRID_OUTPUT_RATE", "BEATGRID_STORAGE_DIR", "BEATGRID_OWNER", "BEATGRID_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	got := Load()
	want := Config{
		BPM:        120,
		Steps:      16,
		TargetRate: 16000,
		OutputRate: 44100,
		StorageDir: "samples",
		Owner:      "local",
		LogLevel:   "info",
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BEATGRID_BPM", "92.5")
	t.Setenv("BEATGRID_STEPS", "32")
	t.Setenv("BEATGRID_TARGET_RATE", "8000")
	t.Setenv("BEATGRID_OUTPUT_RATE", "48000")
	t.Setenv("BEATGRID_STORAGE_DIR", "/tmp/beats")
	t.Setenv("BEATGRID_OWNER", "alice")
	t.Setenv("BEATGRID_LOG_LEVEL", "debug")

	got := Load()
	if got.BPM != 92.5 || got.Steps != 32 || got.TargetRate != 8000 || got.OutputRate != 48000 {
		t.Errorf("numeric settings = %+v", got)
	}
	if got.StorageDir != "/tmp/beats" || got.Owner != "alice" {
		t.Errorf("string settings = %+v", got)
	}
	if got.Level() != slog.LevelDebug {
		t.Errorf("Level = %v, want debug", got.Level())
	}
}

func TestLoadIgnoresBadNumbers(t *testing.T) {
	t.Setenv("BEATGRID_BPM", "fast")
	t.Setenv("BEATGRID_STEPS", "-4")
	t.Setenv("BEATGRID_TARGET_RATE", "0")
	got := Load()
	if got.BPM != 120 || got.Steps != 16 || got.TargetRate != 16000 {
		t.Errorf("Load() = %+v, want defaults for bad values", got)
	}
}

func TestLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Config{LogLevel: in}).Level(); got != want {
			t.Errorf("Level(%q) = %v, want %v", in, got, want)
		}
	}
}
