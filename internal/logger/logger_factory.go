package logger

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Brownie44l1/knee-api/internal/config"
)

// ErrNotInitialized is returned by GetLogger before InitLogger has succeeded.
var ErrNotInitialized = errors.New("logger not initialized")

// process-wide logger used by the server binary
var (
	global     Logger
	globalErr  error
	globalOnce sync.Once
)

var levels = map[string]slog.Level{
	config.LogLevelDebug:   slog.LevelDebug,
	config.LogLevelInfo:    slog.LevelInfo,
	config.LogLevelWarning: slog.LevelWarn,
	config.LogLevelError:   slog.LevelError,
}

// InitLogger builds the process-wide logger once; later calls return the
// outcome of the first one.
func InitLogger(settings *config.LoggerSettings) error {
	globalOnce.Do(func() {
		global, globalErr = New(settings)
	})
	return globalErr
}

// GetLogger returns the logger built by InitLogger.
func GetLogger() (Logger, error) {
	if global == nil {
		return nil, fmt.Errorf("%w: call InitLogger first", ErrNotInitialized)
	}
	return global, nil
}

// New builds a standalone logger. The CLI uses it directly so every command
// run validates its own --log-level.
func New(c *config.LoggerSettings) (Logger, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger settings: %w", err)
	}

	switch c.LogType {
	case config.LogTypeConsole:
		return NewConsoleLogger(c.LogLevel), nil
	case config.LogTypeFile:
		return NewFileLogger(c.LogLevel, c.FilePath, c.MaxSize, c.MaxBackups, c.MaxAge), nil
	case config.LogTypeDaily:
		l, err := NewDailyLogger(c.LogLevel, c.FilePath, c.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("daily request log %s_YYYYMMDD kept %d days: %w", c.FilePath, c.MaxAge, err)
		}
		return l, nil
	}
	return nil, fmt.Errorf("unsupported log type %q", c.LogType)
}

// parseLevel falls back to info for anything validation let through.
func parseLevel(level string) slog.Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return slog.LevelInfo
}

func formatArgs(args ...interface{}) string {
	if len(args) == 0 {
		return ""
	}
	return fmt.Sprint(args...)
}
