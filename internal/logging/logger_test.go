package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func resetState() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	logBuffer = nil
	logCallback = nil
	stdout = &bytes.Buffer{}
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"supervisor": "debug",
			"http":       "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"supervisor", true, true, true},
		{"http", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			if got := handler.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, got, tt.wantDebug)
			}
			if got := handler.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, got, tt.wantInfo)
			}
			if got := handler.Enabled(context.Background(), slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	before := GetLogger("script")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should not have debug enabled")
	}

	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"script": "debug"},
	})

	after := GetLogger("script")
	if before != after {
		t.Error("logger should be cached across Initialize")
	}
	if !before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("cached logger should pick up the module level set by Initialize")
	}
}

func TestSetModuleLevel(t *testing.T) {
	resetState()
	Initialize(Config{Level: "info", Format: "text"})

	logger := GetLogger("events")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should start disabled")
	}

	if !SetModuleLevel("events", "debug") {
		t.Fatal("SetModuleLevel rejected a valid level")
	}
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled after SetModuleLevel")
	}

	if SetModuleLevel("events", "loud") {
		t.Error("SetModuleLevel accepted an invalid level")
	}
}

func TestBufferAndCallbackReceiveEntries(t *testing.T) {
	resetState()
	Initialize(Config{Level: "debug", Format: "json"})

	var got []LogEntry
	SetLogCallback(func(entry LogEntry) {
		got = append(got, entry)
	})

	logger := GetLogger("supervisor").With("process_id", "pg_1")
	logger.Info("Process started", "pid", 42, slog.Group("cmd", slog.String("script", "profile_generator")))
	logger.Error("Process failed", "error", errors.New("boom"))

	entries := GetBuffer().ReadAll()
	if len(entries) != 2 {
		t.Fatalf("expected 2 buffered entries, got %d", len(entries))
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 callback entries, got %d", len(got))
	}

	first := entries[0]
	if first.Module != "supervisor" {
		t.Errorf("module = %q, want supervisor", first.Module)
	}
	if first.Attributes["process_id"] != "pg_1" {
		t.Errorf("process_id attribute = %v", first.Attributes["process_id"])
	}
	if first.Attributes["cmd.script"] != "profile_generator" {
		t.Errorf("grouped attribute not flattened: %v", first.Attributes)
	}
	if entries[1].Level != "error" || entries[1].Attributes["error"] != "boom" {
		t.Errorf("unexpected error entry: %+v", entries[1])
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "test")
	logger.Debug("debug only message")

	if count := strings.Count(buf.String(), "debug only message"); count != 1 {
		t.Errorf("expected 1 debug message, got %d. Output: %s", count, buf.String())
	}
}

func TestFormatLogLine(t *testing.T) {
	entry := LogEntry{
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:      "warn",
		Module:     "supervisor",
		Message:    "Graceful stop timed out",
		Attributes: map[string]any{"process_id": "a", "grace": "5s"},
	}

	want := "2026-01-02T03:04:05Z [WARN] [supervisor] Graceful stop timed out grace=5s process_id=a"
	if got := FormatLogLine(entry); got != want {
		t.Errorf("FormatLogLine() = %q, want %q", got, want)
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			switch {
			case tt.isNil && got != nil:
				t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
			case !tt.isNil && got == nil:
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			case !tt.isNil && *got != tt.want:
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}
