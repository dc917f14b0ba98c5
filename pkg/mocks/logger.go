package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

// Logger is a recording mock of ports.Logger.
type Logger struct {
	mu       sync.Mutex
	Messages []LogEntry
}

// LogEntry records one logged message after formatting.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Message   string
}

func (m *Logger) log(level ports.LogLevel, component, msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, LogEntry{
		Level:     level,
		Component: component,
		Message:   fmt.Sprintf(msg, args...),
	})
}

func (m *Logger) Debug(msg string, args ...interface{}) { m.log(ports.LevelDebug, "", msg, args...) }
func (m *Logger) Info(msg string, args ...interface{})  { m.log(ports.LevelInfo, "", msg, args...) }
func (m *Logger) Warn(msg string, args ...interface{})  { m.log(ports.LevelWarn, "", msg, args...) }
func (m *Logger) Error(msg string, args ...interface{}) { m.log(ports.LevelError, "", msg, args...) }

func (m *Logger) WithComponent(component string) ports.Logger {
	return &componentLogger{parent: m, component: component}
}

// HasMessage reports whether any recorded message contains the substring.
func (m *Logger) HasMessage(sub string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Messages {
		if strings.Contains(e.Message, sub) {
			return true
		}
	}
	return false
}

type componentLogger struct {
	parent    *Logger
	component string
}

func (c *componentLogger) Debug(msg string, args ...interface{}) {
	c.parent.log(ports.LevelDebug, c.component, msg, args...)
}
func (c *componentLogger) Info(msg string, args ...interface{}) {
	c.parent.log(ports.LevelInfo, c.component, msg, args...)
}
func (c *componentLogger) Warn(msg string, args ...interface{}) {
	c.parent.log(ports.LevelWarn, c.component, msg, args...)
}
func (c *componentLogger) Error(msg string, args ...interface{}) {
	c.parent.log(ports.LevelError, c.component, msg, args...)
}
func (c *componentLogger) WithComponent(component string) ports.Logger {
	return &componentLogger{parent: c.parent, component: component}
}

var _ ports.Logger = (*Logger)(nil)
