// Package logging is the leveled message facility shared by every db2700
// package.  It wraps log/slog with a single process-wide logger and adds the
// FATAL level used for storage inconsistencies.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dropbox/godropbox/errors"
)

// LevelFatal sits above slog.LevelError.
const LevelFatal = slog.Level(12)

type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

type Config struct {
	Level LogLevel
	// Empty for stderr.
	OutputPath string
	// "json" or "text".
	Format string
}

var (
	mu      sync.RWMutex
	logger  *slog.Logger
	logFile *os.File
)

func parseLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if level, ok := a.Value.Any().(slog.Level); ok && level >= LevelFatal {
			a.Value = slog.StringValue("FATAL")
		}
	}
	return a
}

func newLogger(w io.Writer, config Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(config.Level),
		ReplaceAttr: replaceLevel,
	}
	if config.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init replaces the global logger.  Any log file opened by a previous Init is
// closed.
func Init(config Config) error {
	var w io.Writer = os.Stderr
	var f *os.File
	if config.OutputPath != "" {
		err := os.MkdirAll(filepath.Dir(config.OutputPath), 0o750)
		if err != nil {
			return errors.Wrap(err, "creating log directory")
		}
		f, err = os.OpenFile(
			config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.Wrapf(err, "opening log file %v", config.OutputPath)
		}
		w = f
	}
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	logger = newLogger(w, config)
	return nil
}

// SetOutput is mostly useful in tests.
func SetOutput(w io.Writer, level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w, Config{Level: level})
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func GetLogger() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = newLogger(os.Stderr, Config{Level: LevelInfo})
	}
	return logger
}

func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

func WithTable(name string) *slog.Logger {
	return GetLogger().With("table", name)
}

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// Fatalf logs at FATAL and panics.  It is reserved for physical-layer
// inconsistencies after which the table can no longer be trusted; there is no
// state to unwind, so callers are not expected to recover.
func Fatalf(l *slog.Logger, format string, args ...interface{}) {
	if l == nil {
		l = GetLogger()
	}
	msg := fmt.Sprintf(format, args...)
	l.Log(context.Background(), LevelFatal, msg)
	panic(errors.New(msg))
}
