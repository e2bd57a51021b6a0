package testutil

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/flowlearn/pawfessor/core"
)

// Logger is a core.Logger that records messages and echoes them to the test log.
type Logger struct {
	t    testing.TB
	mu   sync.Mutex
	msgs []string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(t testing.TB) *Logger {
	return &Logger{t: t}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	l.msgs = append(l.msgs, level+": "+msg)
	l.mu.Unlock()
	l.t.Logf("%s: %s %v", level, msg, args)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args)
	l.t.FailNow()
}

// Messages returns the recorded messages as "LEVEL: msg".
func (l *Logger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

// Contains reports whether a message of the given level contains substr.
func (l *Logger) Contains(level, substr string) bool {
	for _, m := range l.Messages() {
		if strings.HasPrefix(m, level+": ") && strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func (l *Logger) String() string {
	return fmt.Sprint(l.Messages())
}
