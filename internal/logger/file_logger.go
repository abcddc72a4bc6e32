package logger

import (
	"fmt"
	"log/slog"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/natefinch/lumberjack"
)

// FileLogger writes JSON records to a size-rotated file.
type FileLogger struct {
	slogLogger
}

// NewFileLogger creates a new file logger with rotation settings.
func NewFileLogger(level string, filePath string, maxSize int, maxBackups int, maxAge int) Logger {
	writer := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	handler := slog.NewJSONHandler(writer, opts)
	return &FileLogger{slogLogger{logger: slog.New(handler)}}
}

// DailyLogger writes JSON records to one file per day, <prefix>_YYYYMMDD.
type DailyLogger struct {
	slogLogger
}

// NewDailyLogger creates a logger rotated at midnight and pruned after maxAge days.
func NewDailyLogger(level string, prefix string, maxAge int) (Logger, error) {
	writer, err := rotatelogs.New(
		prefix+"_%Y%m%d",
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(time.Duration(maxAge)*24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create rotate logs for %s: %w", prefix, err)
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	handler := slog.NewJSONHandler(writer, opts)
	return &DailyLogger{slogLogger{logger: slog.New(handler)}}, nil
}
