package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// captureLogOutput runs f with the global logger writing JSON to a buffer
// and returns what was written.
func captureLogOutput(level Level, f func()) string {
	var buf bytes.Buffer
	oldLogger := defaultLogger
	InitLoggerWriter(&buf, level, FormatJSON)
	defer func() {
		defaultLogger = oldLogger
	}()

	f()
	return buf.String()
}

func decodeLine(t *testing.T, out string) map[string]any {
	t.Helper()
	line := strings.TrimSpace(out)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, out)
	}
	return m
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		format Format
	}{
		{"Debug level JSON format", LevelDebug, FormatJSON},
		{"Info level Text format", LevelInfo, FormatText},
		{"Error level JSON format", LevelError, FormatJSON},
		{"Default level (invalid value)", Level(999), FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogger(tt.level, tt.format)
			if GetLogger() == nil {
				t.Error("Expected logger to be initialized, got nil")
			}
		})
	}
	InitLogger(LevelInfo, FormatText)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat("Text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(Text) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) expected error")
	}
}

func TestLevelFiltering(t *testing.T) {
	out := captureLogOutput(LevelWarn, func() {
		Debug("hidden")
		Info("hidden too")
		Warn("shown", "key", "value")
	})
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below warn leaked:\n%s", out)
	}
	m := decodeLine(t, out)
	if m["msg"] != "shown" || m["key"] != "value" {
		t.Errorf("unexpected record: %v", m)
	}
}

func TestTimestampFormat(t *testing.T) {
	out := captureLogOutput(LevelInfo, func() {
		Info("stamp")
	})
	m := decodeLine(t, out)
	ts, ok := m["time"].(string)
	if !ok {
		t.Fatalf("time attribute missing: %v", m)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestRunID(t *testing.T) {
	id := NewRunID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("NewRunID() = %q is not a uuid: %v", id, err)
	}

	ctx := WithRunID(context.Background(), id)
	if got := GetRunID(ctx); got != id {
		t.Errorf("GetRunID() = %q, want %q", got, id)
	}
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("GetRunID(empty) = %q", got)
	}
	if got := GetRunID(context.WithValue(context.Background(), RunIDKey, 42)); got != "" {
		t.Errorf("GetRunID(wrong type) = %q", got)
	}

	out := captureLogOutput(LevelDebug, func() {
		InfoContext(ctx, "with run")
	})
	if m := decodeLine(t, out); m["run_id"] != id {
		t.Errorf("run_id = %v, want %s", m["run_id"], id)
	}
}

func TestContextLoggingFunctions(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	fns := map[string]func(){
		"DEBUG": func() { DebugContext(ctx, "m") },
		"INFO":  func() { InfoContext(ctx, "m") },
		"WARN":  func() { WarnContext(ctx, "m") },
		"ERROR": func() { ErrorContext(ctx, "m") },
	}
	for level, fn := range fns {
		m := decodeLine(t, captureLogOutput(LevelDebug, fn))
		if m["level"] != level || m["run_id"] != "run-1" {
			t.Errorf("%s: unexpected record %v", level, m)
		}
	}
}

func TestResolutionDone(t *testing.T) {
	out := captureLogOutput(LevelInfo, func() {
		ResolutionDone(context.Background(), "30040:pk:book", 12, 1500*time.Millisecond, "format", "adoc")
	})
	m := decodeLine(t, out)
	if m["msg"] != "resolution_done" || m["root"] != "30040:pk:book" {
		t.Errorf("unexpected record: %v", m)
	}
	if m["nodes"] != float64(12) || m["duration_ms"] != float64(1500) || m["format"] != "adoc" {
		t.Errorf("unexpected attributes: %v", m)
	}
}

func TestStoreError(t *testing.T) {
	out := captureLogOutput(LevelInfo, func() {
		StoreError(context.Background(), "query", errors.New("disk full"))
	})
	m := decodeLine(t, out)
	if m["msg"] != "store_error" || m["operation"] != "query" || m["error"] != "disk full" || m["level"] != "ERROR" {
		t.Errorf("unexpected record: %v", m)
	}
}
