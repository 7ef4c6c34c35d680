// Package testutil provides common test utilities for rostertag.
package testutil

import (
	"sync"

	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger and records every entry, including
// entries written through children returned by With and Named.
type MockLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// LogMessage is a single entry captured by MockLogger.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

func NewMockLogger() *MockLogger {
	return &MockLogger{Messages: make([]LogMessage, 0)}
}

func (m *MockLogger) record(msg LogMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
}

func (m *MockLogger) root() *childLogger { return &childLogger{sink: m} }

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.root().Debug(msg, fields...) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.root().Info(msg, fields...) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.root().Warn(msg, fields...) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.root().Error(msg, fields...) }

// Fatal is recorded but never exits.
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.root().Fatal(msg, fields...) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger { return m.root().With(fields...) }
func (m *MockLogger) Named(name string) logging.Logger            { return m.root().Named(name) }

// GetMessages returns a copy of all logged messages.
func (m *MockLogger) GetMessages() []LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]LogMessage, len(m.Messages))
	copy(result, m.Messages)
	return result
}

func (m *MockLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = m.Messages[:0]
}

// HasMessage reports whether an entry with the given level and message was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	return m.Find(level, msg) != nil
}

// Find returns the first entry with the given level and message, or nil.
func (m *MockLogger) Find(level, msg string) *LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Messages {
		if m.Messages[i].Level == level && m.Messages[i].Message == msg {
			found := m.Messages[i]
			return &found
		}
	}
	return nil
}

type childLogger struct {
	sink   *MockLogger
	name   string
	fields []logging.Field
}

func (c *childLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	all = append(all, fields...)
	c.sink.record(LogMessage{Level: level, Logger: c.name, Message: msg, Fields: all})
}

func (c *childLogger) Debug(msg string, fields ...logging.Field) { c.log("debug", msg, fields) }
func (c *childLogger) Info(msg string, fields ...logging.Field)  { c.log("info", msg, fields) }
func (c *childLogger) Warn(msg string, fields ...logging.Field)  { c.log("warn", msg, fields) }
func (c *childLogger) Error(msg string, fields ...logging.Field) { c.log("error", msg, fields) }
func (c *childLogger) Fatal(msg string, fields ...logging.Field) { c.log("fatal", msg, fields) }

func (c *childLogger) With(fields ...logging.Field) logging.Logger {
	next := &childLogger{sink: c.sink, name: c.name}
	next.fields = append(append(next.fields, c.fields...), fields...)
	return next
}

func (c *childLogger) Named(name string) logging.Logger {
	next := &childLogger{sink: c.sink, name: name, fields: c.fields}
	if c.name != "" {
		next.name = c.name + "." + name
	}
	return next
}

var (
	_ logging.Logger = (*MockLogger)(nil)
	_ logging.Logger = (*childLogger)(nil)
)

//Personal.AI order the ending
