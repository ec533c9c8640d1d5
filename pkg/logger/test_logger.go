package logger

import (
	"bytes"
	"fmt"
	"sync"
)

// TestLogger is a logger implementation for testing that captures all log messages
type TestLogger struct {
	store  *messageStore
	fields map[string]interface{}
	err    error
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// messageStore is shared by a TestLogger and every logger derived from it
type messageStore struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   bytes.Buffer
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{store: &messageStore{}}
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

// WithField returns a derived logger recording into the same store
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a derived logger recording into the same store
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return &TestLogger{store: l.store, fields: l.merge(fields), err: l.err}
}

// WithError returns a derived logger that attaches err to every message
func (l *TestLogger) WithError(err error) Logger {
	return &TestLogger{store: l.store, fields: l.fields, err: err}
}

func (l *TestLogger) merge(additional map[string]interface{}) map[string]interface{} {
	if len(l.fields) == 0 && len(additional) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(l.fields)+len(additional))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range additional {
		merged[k] = v
	}
	return merged
}

// log captures a log message
func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	s := l.store
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := l.merge(fields)
	s.messages = append(s.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  merged,
		Error:   l.err,
	})

	fmt.Fprintf(&s.buffer, "[%s] %s", level, msg)
	if len(merged) > 0 {
		fmt.Fprintf(&s.buffer, " fields=%v", merged)
	}
	if l.err != nil {
		fmt.Fprintf(&s.buffer, " error=%v", l.err)
	}
	fmt.Fprintln(&s.buffer)
}

// GetMessages returns all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	messages := make([]LogMessage, len(l.store.messages))
	copy(messages, l.store.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	for _, msg := range l.GetMessages() {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if an error was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	l.store.messages = l.store.messages[:0]
	l.store.buffer.Reset()
}

// String returns all log messages as a string
func (l *TestLogger) String() string {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	return l.store.buffer.String()
}
