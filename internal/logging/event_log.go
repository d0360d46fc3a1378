package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const eventLogPattern = "events-*.jsonl"

// EventLog is a JSON log file that mirrors a serve-mode logger.
type EventLog struct {
	path string
	file *os.File
}

// OpenEventLog prunes event logs in dir older than retentionDays, opens a new
// one named after now and returns base teed into it. The returned EventLog must
// be closed by the caller.
func OpenEventLog(base *slog.Logger, dir, level string, retentionDays int, now time.Time) (*slog.Logger, *EventLog, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return base, nil, fmt.Errorf("event log directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return base, nil, fmt.Errorf("create event log dir: %w", err)
	}
	PruneEventLogs(base, dir, retentionDays, now)

	path := filepath.Join(dir, "events-"+now.UTC().Format("20060102T150405")+".jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return base, nil, fmt.Errorf("open event log: %w", err)
	}
	logger := TeeLogger(base, newJSONHandler(file, parseLevel(level), false))
	return logger, &EventLog{path: path, file: file}, nil
}

// Path returns the event log location.
func (l *EventLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close flushes and closes the file.
func (l *EventLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// PruneEventLogs removes event logs in dir last modified before
// now minus retentionDays. Zero or negative retention keeps everything.
func PruneEventLogs(logger *slog.Logger, dir string, retentionDays int, now time.Time) {
	if retentionDays <= 0 {
		return
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	matches, err := filepath.Glob(filepath.Join(dir, eventLogPattern))
	if err != nil {
		return
	}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "event log prune failed", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on the state_dir logs directory"),
				String(FieldImpact, "old event log remains on disk"),
			)
			continue
		}
		if logger != nil {
			logger.Debug("event log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
}
