package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Log level constants
const (
	LogLevelDebug   = "debug"
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// Log type constants
const (
	LogTypeConsole = "console"
	LogTypeFile    = "file"
	LogTypeDaily   = "daily"
)

// LoggerSettings holds configuration settings for logging
type LoggerSettings struct {
	LogLevel   string `json:"log_level" validate:"required,oneof=debug info warning error"`
	LogType    string `json:"log_type" validate:"required,oneof=console file daily"`
	FilePath   string `json:"file_path"`   // log file, or file prefix for daily rotation
	MaxSize    int    `json:"max_size"`    // megabytes, file logger only
	MaxBackups int    `json:"max_backups"` // file logger only
	MaxAge     int    `json:"max_age"`     // days, file and daily loggers
}

// Validate checks that all fields in LoggerSettings are valid
func (s *LoggerSettings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("validation failed for LoggerSettings: %w", err)
	}

	switch s.LogType {
	case LogTypeFile:
		if s.FilePath == "" {
			return fmt.Errorf("file path is required for file logger")
		}
		if s.MaxSize < 1 || s.MaxSize > 100 {
			return fmt.Errorf("max size must be between 1 and 100 MB")
		}
		if s.MaxBackups < 1 || s.MaxBackups > 10 {
			return fmt.Errorf("max backups must be between 1 and 10")
		}
		if s.MaxAge < 1 || s.MaxAge > 365 {
			return fmt.Errorf("max age must be between 1 and 365 days")
		}
	case LogTypeDaily:
		if s.FilePath == "" {
			return fmt.Errorf("file path is required for daily logger")
		}
		if s.MaxAge < 1 || s.MaxAge > 365 {
			return fmt.Errorf("max age must be between 1 and 365 days")
		}
	}
	return nil
}
