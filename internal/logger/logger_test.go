package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelsFilterFileOutput(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(dir, tt.level+".log")
			InitWithOptions(Options{
				Level: tt.level,
				File:  FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1},
			})

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read log file: %v", err)
			}
			out := string(content)
			for _, want := range tt.expected {
				if !strings.Contains(out, want) {
					t.Errorf("expected %s in output", want)
				}
			}
			for _, skip := range tt.excluded {
				if strings.Contains(out, skip) {
					t.Errorf("unexpected %s in output for level %s", skip, tt.level)
				}
			}
		})
	}
}

func TestJSONFileCore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relief.log")
	InitWithOptions(Options{Level: "info", File: DefaultFileConfig(path), JSON: true})

	Named("lighting").Info("lighting calculated", zap.Float32("max_intensity", 0.75))
	Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, content)
	}
	if entry["logger"] != "lighting" {
		t.Errorf("logger = %v, expected lighting", entry["logger"])
	}
	if entry["max_intensity"] != 0.75 {
		t.Errorf("max_intensity = %v, expected 0.75", entry["max_intensity"])
	}
}

func TestConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWithOptions(Options{Level: "info", Console: &buf})
	Info("terrain generated", zap.Int("width", 513))
	Sync()
	if !strings.Contains(buf.String(), "terrain generated") || !strings.Contains(buf.String(), "513") {
		t.Errorf("console output missing entry: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, expected %v", in, got, want)
		}
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/relief.log")
	if cfg.Path != "/tmp/relief.log" || cfg.MaxSizeMB != 20 || cfg.MaxBackups != 3 || cfg.MaxAgeDays != 14 || !cfg.Compress {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
