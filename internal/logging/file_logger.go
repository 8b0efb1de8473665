package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// FileLogger persists Info and Error lines to a run log and mirrors every call
// to an inner logger. The file is truncated when the logger is opened, so it
// only ever holds the current run.
type FileLogger struct {
	inner ndlsync.Logger
	file  *os.File
	runID string
	mu    sync.Mutex
}

// OpenFileLogger truncates path, writes a run header and returns the logger.
// The caller must Close it.
func OpenFileLogger(path string, inner ndlsync.Logger) (*FileLogger, error) {
	if inner == nil {
		inner = NewNullLogger()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	l := &FileLogger{inner: inner, file: f, runID: uuid.NewString()}
	if err := l.append(fmt.Sprintf("# run %s started %s", l.runID, time.Now().Format(time.RFC3339))); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// RunID identifies this run in the log header.
func (l *FileLogger) RunID() string {
	return l.runID
}

// Verbose is forwarded to the inner logger only.
func (l *FileLogger) Verbose(format string, args ...interface{}) {
	l.inner.Verbose(format, args...)
}

// Info is written to the log file and the inner logger.
func (l *FileLogger) Info(format string, args ...interface{}) {
	l.inner.Info(format, args...)
	l.persist(render(format, args))
}

// Error is written to the log file and the inner logger.
func (l *FileLogger) Error(format string, args ...interface{}) {
	l.inner.Error(format, args...)
	l.persist(render(format, args))
}

// Close flushes and closes the log file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *FileLogger) persist(line string) {
	if err := l.append(line); err != nil {
		l.inner.Error("failed to write log file: %v", err)
	}
}

func (l *FileLogger) append(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("log file is closed")
	}
	if _, err := l.file.WriteString(line + "\n"); err != nil {
		return err
	}
	return l.file.Sync()
}
