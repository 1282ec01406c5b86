package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger provides centralized logging for the entire application
type Logger struct {
	logger *slog.Logger
	file   *os.File
}

var (
	mu           sync.RWMutex
	globalLogger *Logger
	level        = new(slog.LevelVar)
)

// init creates the global logger with stderr output by default
func init() {
	level.Set(slog.LevelInfo)
	globalLogger = &Logger{logger: slog.New(newHandler(os.Stderr))}
}

func newHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   slog.TimeKey,
					Value: slog.StringValue(a.Value.Time().Format("2006/01/02 15:04:05.000000")),
				}
			}
			return a
		},
	})
}

// SetFileOutput configures the logger to append to the specified file.
// The TUI uses this so log lines never land on the terminal.
func SetFileOutput(filename string) error {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return err
	}
	swap(&Logger{logger: slog.New(newHandler(file)), file: file})
	return nil
}

// SetOutput routes log output to w.
func SetOutput(w io.Writer) {
	swap(&Logger{logger: slog.New(newHandler(w))})
}

// SetLevel sets the minimum level by name: debug, info, warn or error.
// Unknown names leave the level unchanged.
func SetLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}
}

func swap(next *Logger) {
	mu.Lock()
	prev := globalLogger
	globalLogger = next
	mu.Unlock()

	if prev != nil && prev.file != nil {
		prev.file.Close()
	}
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger == nil {
		return nil
	}
	return globalLogger.logger
}

// Standard logging methods
func Debug(msg string, args ...any) {
	if l := current(); l != nil {
		l.Debug(msg, args...)
	}
}

func Info(msg string, args ...any) {
	if l := current(); l != nil {
		l.Info(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if l := current(); l != nil {
		l.Warn(msg, args...)
	}
}

func Error(msg string, args ...any) {
	if l := current(); l != nil {
		l.Error(msg, args...)
	}
}

// Close closes the log file, if one is open, and falls back to stderr
func Close() {
	swap(&Logger{logger: slog.New(newHandler(os.Stderr))})
}
