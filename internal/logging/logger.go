// Package logging is strategist's process-wide text logger.
//
// The TUI owns the terminal, so the client logs to a dated file under the
// state directory; `strategist serve` logs to stderr. Until one of the
// Init functions runs, every call is a no-op.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	mu   sync.RWMutex
	std  *log.Logger
	file *os.File // set by Init, closed by Close
)

// FileName is the log file for day t.
func FileName(t time.Time) string {
	return "strategist-" + t.Format("2006-01-02") + ".log"
}

// Init appends to today's log file in dir at the given level.
func Init(dir, level string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName(time.Now())), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	install(f, f, level)
	return nil
}

// InitWriter logs to w. Levels charmbracelet/log does not know map to info.
func InitWriter(w io.Writer, level string) {
	install(w, nil, level)
}

func install(w io.Writer, f *os.File, level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
	})

	mu.Lock()
	defer mu.Unlock()
	if file != nil && file != f {
		file.Close()
	}
	std, file = l, f
}

// Close closes the log file, if any, and disables logging.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
	std = nil
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

func Debug(msg string, keyvals ...any) {
	if l := current(); l != nil {
		l.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...any) {
	if l := current(); l != nil {
		l.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...any) {
	if l := current(); l != nil {
		l.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...any) {
	if l := current(); l != nil {
		l.Error(msg, keyvals...)
	}
}
