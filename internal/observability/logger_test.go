package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:      slog.LevelInfo,
		Output:     &buf,
		JSONFormat: true,
	})

	logger.Info("cache hit", "cache_type", "fund_analysis")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "cache hit" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["cache_type"] != "fund_analysis" {
		t.Errorf("cache_type = %v", record["cache_type"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  slog.LevelWarn,
		Output: &buf,
	})

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("low-level records leaked: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"ERROR":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:      slog.LevelInfo,
		Output:     &buf,
		JSONFormat: true,
	})

	ctx := ContextWithRequestID(context.Background(), "req-123")
	logger.WithRequestID(ctx).Info("tagged")

	if !strings.Contains(buf.String(), "req-123") {
		t.Errorf("request_id missing: %q", buf.String())
	}
}
