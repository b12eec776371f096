// SPDX-License-Identifier: MPL-2.0

// Package runlog persists a record of every executed step.
//
// Records are written by a dedicated charmbracelet/log logger, one entry per
// step: SUCCESS at info level, IGNORED at warn level and FAILED at error level,
// carrying the task, description, command, exit code and captured output.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/pluttan/volumes/internal/runtime"
)

// TimeFormat is the timestamp layout of every record.
const TimeFormat = "2006-01-02 15:04:05"

// Record formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type (
	// Format selects the record encoding.
	Format string

	// Log appends step records to a writer, normally the log file.
	Log struct {
		mu     sync.Mutex
		logger *log.Logger
		closer io.Closer
		path   string
	}
)

// Open opens (or creates) the log file at path in append mode, creating
// parent directories as needed.
func Open(path string, format Format) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	l := New(f, format)
	l.closer = f
	l.path = path
	return l, nil
}

// New creates a Log writing to w.
func New(w io.Writer, format Format) *Log {
	formatter := log.TextFormatter
	if format == FormatJSON {
		formatter = log.JSONFormatter
	}
	return &Log{
		logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      TimeFormat,
			Formatter:       formatter,
			Level:           log.InfoLevel,
		}),
	}
}

// Record implements runtime.Recorder.
func (l *Log) Record(o runtime.StepOutcome) {
	kv := []any{
		"task", o.Task,
		"desc", o.Description,
		"cmd", o.Command,
		"exit", int(o.ExitCode),
	}
	if out := strings.TrimSpace(o.Output); out != "" {
		kv = append(kv, "output", out)
	}
	if o.Err != nil {
		kv = append(kv, "err", o.Err.Error())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	switch o.Kind {
	case runtime.OutcomeSuccess:
		l.logger.Info("SUCCESS", kv...)
	case runtime.OutcomeIgnored:
		l.logger.Warn("IGNORED", kv...)
	default:
		l.logger.Error("FAILED", kv...)
	}
}

// Path returns the file path, or "" for logs created with New.
func (l *Log) Path() string {
	return l.path
}

// Close closes the underlying file, if any.
func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ValidFormats returns the accepted Format values.
func ValidFormats() []Format {
	return []Format{FormatText, FormatJSON}
}
