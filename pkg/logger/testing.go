package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
)

// Entry is one message recorded by a TestLogger
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

type entryLog struct {
	mu      sync.Mutex
	entries []Entry
}

// TestLogger records every message and forwards it to t.Logf when t is set
type TestLogger struct {
	T      *testing.T
	fields map[string]interface{}
	log    *entryLog
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{T: t, fields: map[string]interface{}{}, log: &entryLog{}}
}

// NewMockLogger creates a recording logger; t is optional
func NewMockLogger(t ...*testing.T) *TestLogger {
	if len(t) > 0 {
		return NewTestLogger(t[0])
	}
	return NewTestLogger(nil)
}

func (l *TestLogger) record(level, msg string) {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}

	l.log.mu.Lock()
	l.log.entries = append(l.log.entries, Entry{Level: level, Message: msg, Fields: fields})
	l.log.mu.Unlock()

	if l.T != nil {
		l.T.Logf("[%s] %s%s", strings.ToUpper(level), msg, formatFields(fields))
	}
}

func (l *TestLogger) Debug(msg string) { l.record("debug", msg) }
func (l *TestLogger) Info(msg string)  { l.record("info", msg) }
func (l *TestLogger) Warn(msg string)  { l.record("warn", msg) }
func (l *TestLogger) Error(msg string) { l.record("error", msg) }

// Fatal is recorded like the other levels, it does not exit
func (l *TestLogger) Fatal(msg string) { l.record("fatal", msg) }

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{T: l.T, fields: merged, log: l.log}
}

// Entries returns the messages logged so far, optionally only those of level
func (l *TestLogger) Entries(level ...string) []Entry {
	l.log.mu.Lock()
	defer l.log.mu.Unlock()

	out := make([]Entry, 0, len(l.log.entries))
	for _, e := range l.log.entries {
		if len(level) == 0 || e.Level == level[0] {
			out = append(out, e)
		}
	}
	return out
}

func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}
