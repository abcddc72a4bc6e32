package testutil

import (
	"fmt"
	"sync"

	"github.com/Brownie44l1/knee-api/internal/logger"
)

// RecordingLogger keeps every message in memory so tests can inspect them.
type RecordingLogger struct {
	mu      sync.Mutex
	Entries []string
}

var _ logger.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) record(level string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, level+" "+fmt.Sprint(args...))
}

func (l *RecordingLogger) Debug(args ...interface{}) { l.record("DEBUG", args...) }
func (l *RecordingLogger) Info(args ...interface{})  { l.record("INFO", args...) }
func (l *RecordingLogger) Warn(args ...interface{})  { l.record("WARN", args...) }
func (l *RecordingLogger) Error(args ...interface{}) { l.record("ERROR", args...) }
func (l *RecordingLogger) Fatal(args ...interface{}) { l.record("FATAL", args...) }

// Messages returns a copy of recorded entries.
func (l *RecordingLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Entries...)
}
