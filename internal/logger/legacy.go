package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// LegacyLogger writes plain "[LEVEL] msg k=v" lines.
// Debug and info go to stdout, warnings and errors to stderr.
type LegacyLogger struct {
	mu     sync.RWMutex
	level  Level
	fields []any
	out    io.Writer
	errOut io.Writer
}

func NewLegacyLogger() *LegacyLogger {
	return &LegacyLogger{
		level:  LevelInfo,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

func (l *LegacyLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *LegacyLogger) shouldLog(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

func (l *LegacyLogger) write(w io.Writer, level Level, msg string, args []any) {
	if !l.shouldLog(level) {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(level.String()), msg)
	all := append(append([]any{}, l.fields...), args...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}
	fmt.Fprintln(w, b.String())
}

func (l *LegacyLogger) Debug(msg string, args ...any) { l.write(l.out, LevelDebug, msg, args) }
func (l *LegacyLogger) Info(msg string, args ...any)  { l.write(l.out, LevelInfo, msg, args) }
func (l *LegacyLogger) Warn(msg string, args ...any)  { l.write(l.errOut, LevelWarn, msg, args) }
func (l *LegacyLogger) Error(msg string, args ...any) { l.write(l.errOut, LevelError, msg, args) }

// With returns a logger that prefixes every line's fields with args
func (l *LegacyLogger) With(args ...any) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &LegacyLogger{
		level:  l.level,
		fields: append(append([]any{}, l.fields...), args...),
		out:    l.out,
		errOut: l.errOut,
	}
}

func (l *LegacyLogger) Sync() error     { return nil }
func (l *LegacyLogger) Shutdown() error { return nil }
