// Package log provides structured event logging.
// Events are written as JSON lines to logs/servicesaver.jsonl under the
// config home, one zap entry per line.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event type constants. Every entry carries one of these in its "event" field.
const (
	EventAppStarted      = "app_started"
	EventSignedIn        = "signed_in"
	EventSignedOut       = "signed_out"
	EventAuthFailed      = "auth_failed"
	EventSyncStarted     = "sync_started"
	EventSyncStopped     = "sync_stopped"
	EventSyncError       = "sync_error"
	EventSyncRecovered   = "sync_recovered"
	EventStatusChanged   = "status_changed"
	EventMessageAppended = "message_appended"
	EventSessionReset    = "session_reset"
	EventWriteFailed     = "write_failed"
	EventPushRegistered  = "push_registered"
	EventPushFailed      = "push_failed"
)

// FileName is the log file inside the logs directory.
const FileName = "servicesaver.jsonl"

// LogEvent is a decoded log line.
type LogEvent struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"msg"`
	Event   string    `json:"event,omitempty"`
	UID     string    `json:"uid,omitempty"`
	Stream  string    `json:"stream,omitempty"`
	Screen  string    `json:"screen,omitempty"`
	Stage   string    `json:"stage,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Path returns the log file path under home.
func Path(home string) string {
	return filepath.Join(home, "logs", FileName)
}

// NewLogger creates a zap logger that appends JSON lines to the log file
// under home. Creates the logs/ directory if it does not already exist.
// Does not truncate an existing log file.
func NewLogger(home, level string) (*zap.Logger, error) {
	path := Path(home)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.DisableStacktrace = true
	cfg.Sampling = nil

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// ReadAll reads and parses all events from the log file under home.
// Returns an empty slice (not an error) if the file does not exist.
func ReadAll(home string) ([]LogEvent, error) {
	f, err := os.Open(Path(home))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LogEvent{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []LogEvent
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event LogEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}

// LastOf returns the most recent event with the given type.
func LastOf(events []LogEvent, event string) (LogEvent, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Event == event {
			return events[i], true
		}
	}
	return LogEvent{}, false
}
