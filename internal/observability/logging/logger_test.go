package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestLoggerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "neura-api", "info")

	ctx := WithRequestID(context.Background(), "req-42")
	logger.InfoContext(ctx, "answer_completed", "classification", "weather")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["request_id"] != "req-42" || entry["service"] != "neura-api" || entry["msg"] != "answer_completed" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestLoggerWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLoggerTo(&buf, "svc", "info").InfoContext(context.Background(), "started")

	var entry map[string]any
	_ = json.Unmarshal(buf.Bytes(), &entry)
	if _, ok := entry["request_id"]; ok {
		t.Fatalf("request_id must be absent: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
