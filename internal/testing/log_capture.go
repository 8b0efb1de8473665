package testing

import (
	"fmt"
	"strings"
	"sync"
)

// LogEntry is one message recorded by LogCapture.
type LogEntry struct {
	Level   string // verbose, info, error
	Message string
}

// LogCapture is an ndlsync.Logger that records every message for assertions.
// Thread-safe for concurrent use.
type LogCapture struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLogCapture creates an empty LogCapture.
func NewLogCapture() *LogCapture {
	return &LogCapture{}
}

func (c *LogCapture) Verbose(format string, args ...interface{}) { c.record("verbose", format, args) }
func (c *LogCapture) Info(format string, args ...interface{})    { c.record("info", format, args) }
func (c *LogCapture) Error(format string, args ...interface{})   { c.record("error", format, args) }

func (c *LogCapture) record(level, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, LogEntry{Level: level, Message: msg})
}

// Entries returns a copy of all recorded entries.
func (c *LogCapture) Entries() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]LogEntry, len(c.entries))
	copy(result, c.entries)
	return result
}

// Messages returns the messages logged at level, in order.
func (c *LogCapture) Messages(level string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result []string
	for _, e := range c.entries {
		if e.Level == level {
			result = append(result, e.Message)
		}
	}
	return result
}

// Contains reports whether any message at level contains substr.
func (c *LogCapture) Contains(level, substr string) bool {
	for _, m := range c.Messages(level) {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}
