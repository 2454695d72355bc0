package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var (
	_ Logger = (*ZerologAdapter)(nil)
	_ Logger = (*StdLoggerAdapter)(nil)
)

// decode parses the single JSON entry written to buf.
func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v\n%s", err, buf.String())
	}
	return entry
}

func TestFieldHelpers(t *testing.T) {
	t.Parallel()
	err := errors.New("boom")
	tests := []struct {
		field Field
		key   string
		value any
	}{
		{String("lab", "rect"), "lab", "rect"},
		{Int("workers", 4), "workers", 4},
		{Uint64("items", 1 << 40), "items", uint64(1 << 40)},
		{Float64("speedup", 3.5), "speedup", 3.5},
		{Duration("elapsed", time.Millisecond), "elapsed", time.Millisecond},
		{Err(err), "error", err},
	}
	for _, tt := range tests {
		if tt.field.Key != tt.key || tt.field.Value != tt.value {
			t.Errorf("field = %+v, want {%s %v}", tt.field, tt.key, tt.value)
		}
	}
}

func TestZerologAdapter_FieldTypes(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf))

	logger.Info("lab finished",
		String("lab", "series"),
		Int("tasks", 4),
		Float64("delta", 0.25),
		Field{Key: "strict", Value: true},
		Field{Key: "sizes", Value: []int{1, 2}},
	)

	entry := decode(t, &buf)
	want := map[string]any{
		"level":   "info",
		"message": "lab finished",
		"lab":     "series",
		"tasks":   float64(4),
		"delta":   0.25,
		"strict":  true,
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("entry[%q] = %v, want %v", k, entry[k], v)
		}
	}
	if sizes, ok := entry["sizes"].([]any); !ok || len(sizes) != 2 {
		t.Errorf("entry[sizes] = %v, want a two element array", entry["sizes"])
	}
}

func TestZerologAdapter_Levels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		level string
		log   func(Logger)
	}{
		{"debug", func(l Logger) { l.Debug("m") }},
		{"info", func(l Logger) { l.Info("m") }},
		{"warn", func(l Logger) { l.Warn("m") }},
		{"error", func(l Logger) { l.Error("m", errors.New("workload failed")) }},
		{"info", func(l Logger) { l.Printf("%s", "m") }},
		{"info", func(l Logger) { l.Println("m") }},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		tt.log(NewZerologAdapter(zerolog.New(&buf)))
		entry := decode(t, &buf)
		if entry["level"] != tt.level || entry["message"] != "m" {
			t.Errorf("entry = %v, want level %s and message m", entry, tt.level)
		}
		if tt.level == "error" && entry["error"] != "workload failed" {
			t.Errorf("error entry = %v, want the error attached", entry)
		}
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLeveledLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLeveledLogger(&buf, "engine", "warn")

	logger.Info("hidden")
	logger.Warn("shown", Int("workers", 4))

	entry := decode(t, &buf)
	if entry["message"] != "shown" || entry["component"] != "engine" {
		t.Errorf("entry = %v, want the warn entry tagged with its component", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Errorf("entry = %v, want a timestamp", entry)
	}
}

func TestZerologAdapter_With(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	parent := NewLeveledLogger(&buf, "app", "info")
	child := parent.With(String("run_id", "abc-123"))

	child.Info("lab finished")
	if entry := decode(t, &buf); entry["run_id"] != "abc-123" {
		t.Errorf("child entry = %v, want run_id", entry)
	}

	buf.Reset()
	parent.Info("lab finished")
	if entry := decode(t, &buf); entry["run_id"] != nil {
		t.Errorf("parent entry = %v, must not carry the child's fields", entry)
	}
}

func TestNop(t *testing.T) {
	t.Parallel()
	Nop.Info("ignored", String("lab", "rect"))
	Nop.Error("ignored", errors.New("boom"))
}

func TestStdLoggerAdapter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewStdLoggerAdapter(log.New(&buf, "", 0))

	logger.Debug("partition", Int("worker", 2))
	logger.Info("lab started", String("lab", "digits"))
	logger.Warn("parallel result differs")
	logger.Error("lab failed", errors.New("boom"), String("lab", "rect"))
	logger.Printf("%d labs", 7)
	logger.Println("done", 1)

	want := []string{
		"[DEBUG] partition worker=2",
		"[INFO] lab started lab=digits",
		"[WARN] parallel result differs",
		"[ERROR] lab failed error=boom lab=rect",
		"7 labs",
		"done 1",
	}
	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStdLoggerAdapter_WithLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewStdLoggerAdapter(log.New(&buf, "", 0)).WithLevel("warn")

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("kept")
	logger.Error("kept", errors.New("boom"))

	if out := buf.String(); strings.Contains(out, "hidden") || strings.Count(out, "kept") != 2 {
		t.Errorf("warn threshold not applied:\n%s", out)
	}
}
