package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewWritesJSONAtConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", "document", "sessions")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "shown" || entry["document"] != "sessions" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Fatalf("expected logger from context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger on bare context")
	}
	if ContextWithLogger(ctx, nil) != ctx {
		t.Fatalf("expected nil logger to leave context untouched")
	}
}

func TestFromContextOrFallsBack(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	if got := FromContextOr(context.Background(), base); got != base {
		t.Fatalf("expected base logger")
	}
	if got := FromContextOr(context.Background(), nil); got != slog.Default() {
		t.Fatalf("expected default logger")
	}
	scoped := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), scoped)
	if got := FromContextOr(ctx, base); got != scoped {
		t.Fatalf("expected context logger to win")
	}
}
