package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newJSON(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newJSON(t, "debug")

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("layer written", "layer", 2)

			entry := decode(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != "layer written" {
				t.Errorf("msg = %v, want %q", entry["msg"], "layer written")
			}
			if entry["layer"] != float64(2) {
				t.Errorf("layer = %v, want 2", entry["layer"])
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	l, buf := newJSON(t, "info")

	l.With("component", "partition").Info("commit")

	entry := decode(t, buf)
	if entry["component"] != "partition" {
		t.Errorf("component = %v, want partition", entry["component"])
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newJSON(t, "error")
	defer SetLevel("info")

	l.Info("filtered")
	if buf.Len() > 0 {
		t.Error("Info should be filtered at error level")
	}

	SetLevel("debug")
	l.Info("emitted")
	if buf.Len() == 0 {
		t.Error("Info should be logged after level changed to debug")
	}
	if got := GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q, want debug", got)
	}
}

func TestParseLevel(t *testing.T) {
	defer SetLevel("info")
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "debug"},
		{"WARN", "warn"},
		{"warning", "warn"},
		{"error", "error"},
		{"bogus", "info"},
		{"", "info"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetLevel(tt.input)
			if got := GetLevel(); got != tt.want {
				t.Errorf("SetLevel(%q); GetLevel() = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetDefault(t *testing.T) {
	l, buf := newJSON(t, "debug")
	prev := Default()
	SetDefault(l)
	defer SetDefault(prev)

	Default().Debug("x")
	if buf.Len() == 0 {
		t.Error("Default() did not return the installed logger")
	}

	SetDefault(nil)
	if Default() != l {
		t.Error("SetDefault(nil) replaced the logger")
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	l.With("a", 1).WithContext(t.Context()).Warn("nothing")
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("save complete", "instances", 12)

	out := buf.String()
	if !strings.Contains(out, "save complete") || !strings.Contains(out, "instances=12") {
		t.Errorf("text output = %q", out)
	}
}
