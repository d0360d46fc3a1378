package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"streamfinder/internal/logging"
)

func TestOpenEventLogMirrorsJSON(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	base, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger, eventLog, err := logging.OpenEventLog(base, dir, "info", 14, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("OpenEventLog returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("streams resolved", logging.String("canonical_id", "101"))
	if err := eventLog.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if !strings.Contains(console.String(), "streams resolved canonical_id=101") {
		t.Fatalf("expected console line, got %q", console.String())
	}
	if filepath.Base(eventLog.Path()) != "events-20260301T120000.jsonl" {
		t.Fatalf("unexpected event log name %q", eventLog.Path())
	}
	data, err := os.ReadFile(eventLog.Path())
	if err != nil {
		t.Fatalf("read event log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one JSON line, got %q", data)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &payload); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if payload["msg"] != "streams resolved" || payload["canonical_id"] != "101" || payload["level"] != "info" {
		t.Fatalf("unexpected event %v", payload)
	}
}

func TestPruneEventLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := filepath.Join(dir, "events-old.jsonl")
	fresh := filepath.Join(dir, "events-new.jsonl")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, fresh, other} {
		if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := now.AddDate(0, 0, -30)
	for _, path := range []string{old, other} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	logging.PruneEventLogs(logging.NewNop(), dir, 0, now)
	if _, err := os.Stat(old); err != nil {
		t.Fatalf("expected zero retention to keep files: %v", err)
	}

	logging.PruneEventLogs(logging.NewNop(), dir, 7, now)
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected stale event log removed, stat err=%v", err)
	}
	for _, path := range []string{fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestTeeHandlerSkipsNil(t *testing.T) {
	if logging.TeeHandler(nil, nil).Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected a discarding handler when nothing is set")
	}
	var buf bytes.Buffer
	base, _ := logging.New(logging.Options{Format: "json", Level: "warn", Writer: &buf})
	logger := logging.TeeLogger(base, nil)
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
