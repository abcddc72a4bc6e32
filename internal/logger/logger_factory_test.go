package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Brownie44l1/knee-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLoggerSingleton() {
	global = nil
	globalErr = nil
	globalOnce = sync.Once{}
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name     string
		settings *config.LoggerSettings
		wantErr  bool
		logFile  string
	}{
		{
			name:     "console logger",
			settings: &config.LoggerSettings{LogLevel: config.LogLevelInfo, LogType: config.LogTypeConsole},
		},
		{
			name: "file logger with rotation",
			settings: &config.LoggerSettings{
				LogLevel:   config.LogLevelInfo,
				LogType:    config.LogTypeFile,
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
			},
			logFile: "app.log",
		},
		{
			name:     "invalid log level",
			settings: &config.LoggerSettings{LogLevel: "invalid", LogType: config.LogTypeConsole},
			wantErr:  true,
		},
		{
			name:     "unsupported log type",
			settings: &config.LoggerSettings{LogLevel: config.LogLevelInfo, LogType: "unknown"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(resetLoggerSingleton)

			if tt.logFile != "" {
				tt.settings.FilePath = filepath.Join(t.TempDir(), tt.logFile)
			}

			err := InitLogger(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				logger, getErr := GetLogger()
				assert.Error(t, getErr)
				assert.Nil(t, logger)
				return
			}

			require.NoError(t, err)
			logger, err := GetLogger()
			require.NoError(t, err)
			require.NotNil(t, logger)

			if tt.logFile != "" {
				logger.Info("test message")
				_, err := os.Stat(tt.settings.FilePath)
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_DailyLogger(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "knee-api")
	logger, err := New(&config.LoggerSettings{
		LogLevel: config.LogLevelInfo,
		LogType:  config.LogTypeDaily,
		FilePath: prefix,
		MaxAge:   7,
	})
	require.NoError(t, err)

	logger.Info("daily message")

	_, err = os.Stat(prefix + "_" + time.Now().Format("20060102"))
	assert.NoError(t, err)
}

func TestGetLogger_BeforeInit(t *testing.T) {
	t.Cleanup(resetLoggerSingleton)

	logger, err := GetLogger()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Nil(t, logger)
}

func TestInitLogger_Singleton(t *testing.T) {
	t.Cleanup(resetLoggerSingleton)

	require.NoError(t, InitLogger(&config.LoggerSettings{LogLevel: config.LogLevelInfo, LogType: config.LogTypeConsole}))
	require.NoError(t, InitLogger(&config.LoggerSettings{LogLevel: config.LogLevelDebug, LogType: config.LogTypeConsole}))

	logger1, err := GetLogger()
	require.NoError(t, err)
	logger2, err := GetLogger()
	require.NoError(t, err)
	assert.Same(t, logger1, logger2)
}

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := &ConsoleLogger{slogLogger{logger: slog.New(handler)}}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{config.LogLevelDebug, slog.LevelDebug},
		{config.LogLevelInfo, slog.LevelInfo},
		{config.LogLevelWarning, slog.LevelWarn},
		{config.LogLevelError, slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestFormatArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []interface{}
		expected string
	}{
		{"empty", []interface{}{}, ""},
		{"single", []interface{}{"test"}, "test"},
		{"multiple", []interface{}{"listening on port ", 8000}, "listening on port 8000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatArgs(tt.args...))
		})
	}
}
