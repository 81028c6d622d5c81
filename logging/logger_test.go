package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"colorizer/colorize"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_WritesJSONFile(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "colorizer.log")

	logger, err := New(Config{
		FilePath: logPath,
		Level:    zapcore.InfoLevel,
		Console:  zapcore.AddSync(&console),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("model loaded", zap.String("backend", "stub"))
	logger.Debug("hidden")
	if err := logger.Sync(); err != nil {
		t.Logf("Sync() warning: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d file lines, want 1 (debug filtered): %q", len(lines), data)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("file line is not JSON: %v", err)
	}
	if entry[FieldMessage] != "model loaded" || entry[FieldLevel] != "info" || entry["backend"] != "stub" {
		t.Errorf("entry = %v", entry)
	}
	if !strings.Contains(console.String(), "model loaded") {
		t.Errorf("console output = %q", console.String())
	}
}

func TestNew_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, err := New(Config{Development: true, Level: zapcore.DebugLevel, Console: zapcore.AddSync(&console)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Named("batch").Debug("scan", zap.Int("files", 3))

	out := console.String()
	if !strings.Contains(out, "scan") || !strings.Contains(out, "batch") {
		t.Errorf("console output = %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Error("development console should not be JSON")
	}
	if logger.LogFilePath() != "" || !logger.IsDevelopment() {
		t.Error("accessors do not reflect config")
	}
}

func TestNew_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Config{FilePath: filepath.Join(blocker, "app.log")}); err == nil {
		t.Error("expected error when log directory is a file")
	}
}

func TestNewLogger_Levels(t *testing.T) {
	dir := t.TempDir()
	dev, err := NewLogger(true, filepath.Join(dir, "dev.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !dev.Zap().Core().Enabled(zapcore.DebugLevel) {
		t.Error("development logger should enable debug")
	}
	prod, err := NewLogger(false, filepath.Join(dir, "prod.log"))
	if err != nil {
		t.Fatal(err)
	}
	if prod.Zap().Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger should not enable debug")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{" warning ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in, zapcore.InfoLevel)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestApplyFileWriterDefaults(t *testing.T) {
	got := applyFileWriterDefaults(FileWriterConfig{MaxBackups: 2})
	if got.MaxSizeMB != DefaultMaxSizeMB || got.MaxBackups != 2 || got.MaxAgeDays != DefaultMaxAgeDays {
		t.Errorf("got %+v", got)
	}
}

func TestFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	s := colorize.DefaultSettings()
	s.Style = colorize.StyleVintage
	s.Warmth = 10

	logger.Info("colorized",
		Settings(s),
		Style(s.Style),
		ImageSize(image.Rect(0, 0, 640, 480)),
		Duration(time.Now()),
		Input("in.jpg"),
		Output("out.jpg"))
	logger.Warn("fallback", Degraded(errors.New("bad chroma"))...)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["style"] != "Vintage" || ctx["size"] != "640x480" || ctx["input"] != "in.jpg" || ctx["output"] != "out.jpg" {
		t.Errorf("context = %v", ctx)
	}
	settings, ok := ctx["settings"].(map[string]interface{})
	if !ok || settings["style"] != "Vintage" || settings["warmth"] != 10.0 {
		t.Errorf("settings = %v", ctx["settings"])
	}

	fallback := entries[1].ContextMap()
	if fallback["degraded"] != true || fallback["cause"] != "bad chroma" {
		t.Errorf("degraded fields = %v", fallback)
	}
}

func TestSettingsField_NeutralSlidersOmitted(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("x", Settings(colorize.DefaultSettings()))

	settings := logs.All()[0].ContextMap()["settings"].(map[string]interface{})
	if _, ok := settings["brightness"]; ok {
		t.Errorf("neutral sliders should be omitted: %v", settings)
	}
}
