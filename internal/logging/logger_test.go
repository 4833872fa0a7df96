package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"cinereads/internal/services"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestPrettyHandlerLiftsComponent(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, level, false))
	logger = NewComponentLogger(logger, "diskcache")

	logger.Info("swept expired entries", Int("removed", 2))

	line := buf.String()
	if !strings.Contains(line, "diskcache: swept expired entries") {
		t.Fatalf("expected component prefix in output, got %q", line)
	}
	if !strings.Contains(line, "removed=2") {
		t.Fatalf("expected attrs in output, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be lifted out of attrs, got %q", line)
	}
}

func TestPrettyHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, level, false))

	logger.Info("lookup", String(FieldQuery, "the hobbit by tolkien"))

	if !strings.Contains(buf.String(), `query="the hobbit by tolkien"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestWithContextAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, level, false))

	ctx := services.WithRequestID(context.Background(), "req-42")
	WithContext(ctx, logger).Info("handled")

	if !strings.Contains(buf.String(), "correlation_id=req-42") {
		t.Fatalf("expected correlation id, got %q", buf.String())
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled at any level")
	}
}
