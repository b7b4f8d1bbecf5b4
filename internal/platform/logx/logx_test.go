// internal/platform/logx/logx_test.go
package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

func newBufferLogger(level string) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewWithOptions(Options{Level: level, Format: "json", Writer: buf}), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	logger := New()
	if logger == nil {
		t.Fatal("New() should return a logger, got nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"dbg", LevelDebug},
		{"  debug  ", LevelDebug},
		{"info", LevelInfo},
		{"inf", LevelInfo},
		{"", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"err", LevelError},
		{"ERROR", LevelError},
		{"garbage", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogger_FieldsAndMessage(t *testing.T) {
	logger, buf := newBufferLogger("debug")

	logger.Info("whois lookup failed", "domain", "azure.com", "attempt", 2)

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	line := lines[0]
	if line["message"] != "whois lookup failed" {
		t.Errorf("unexpected message: %v", line["message"])
	}
	if line["domain"] != "azure.com" {
		t.Errorf("expected domain field, got %v", line["domain"])
	}
	if line["attempt"] != float64(2) {
		t.Errorf("expected attempt=2, got %v", line["attempt"])
	}
	if line["level"] != "info" {
		t.Errorf("expected info level, got %v", line["level"])
	}
}

func TestLogger_With_Immutable(t *testing.T) {
	base, buf := newBufferLogger("info")
	child := base.With("component", "resolver")

	child.Info("child")
	base.Info("base")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["component"] != "resolver" {
		t.Errorf("child should carry scope, got %v", lines[0])
	}
	if _, ok := lines[1]["component"]; ok {
		t.Errorf("base logger must not inherit child scope: %v", lines[1])
	}
}

func TestLogger_Err(t *testing.T) {
	logger, buf := newBufferLogger("info")

	logger.Err(errors.New("inference backend unreachable"), "phase", "infer")
	logger.Err(nil, "phase", "ignored")

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("nil errors must not be logged, got %d lines", len(lines))
	}
	if lines[0]["error"] != "inference backend unreachable" {
		t.Errorf("unexpected error field: %v", lines[0]["error"])
	}
	if lines[0]["phase"] != "infer" {
		t.Errorf("unexpected phase field: %v", lines[0]["phase"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("warn")

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	if got := len(decodeLines(t, buf)); got != 1 {
		t.Fatalf("expected only warn line, got %d", got)
	}

	buf.Reset()
	logger.SetLevel(LevelDebug)
	logger.Debug("now shown")
	if got := len(decodeLines(t, buf)); got != 1 {
		t.Fatalf("SetLevel should enable debug, got %d lines", got)
	}
}

func TestLogger_DanglingKey(t *testing.T) {
	logger, buf := newBufferLogger("info")
	logger.Info("odd", "lonely")

	lines := decodeLines(t, buf)
	if lines[0]["lonely"] != "(missing)" {
		t.Errorf("dangling key should be marked, got %v", lines[0])
	}
}

func TestLogger_ThreadSafety(t *testing.T) {
	logger := NewWithOptions(Options{Level: "info", Format: "json", Writer: io.Discard})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.With("worker", i).Info("tick")
			if i%5 == 0 {
				logger.SetLevel(LevelInfo)
			}
		}(i)
	}
	wg.Wait()
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded", "k", "v")
	l.With("a", 1).Err(errors.New("x"))
}
