// Package logger holds the process-wide structured logger used by cloudsync.
//
// Packages take a child per component, e.g. logger.Component("registry"), and
// log through it. Before Init, and after Shutdown, every call is discarded.
package logger

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// LegacyLoggerEnv switches Init to the plain fmt-based logger when set to "true"
const LegacyLoggerEnv = "CLOUDSYNC_USE_LEGACY_LOGGER"

// ComponentKey is the attribute naming the package a record came from
const ComponentKey = "component"

var errAlreadyInitialized = errors.New("logger already initialized; call Shutdown first")

var global struct {
	sync.RWMutex
	current Logger // nil until Init
}

// Init installs the process logger. It fails if one is already installed.
func Init(config Config) error {
	global.Lock()
	defer global.Unlock()

	if global.current != nil {
		return errAlreadyInitialized
	}

	l, err := build(config)
	if err != nil {
		return err
	}
	global.current = l
	return nil
}

func build(config Config) (Logger, error) {
	if os.Getenv(LegacyLoggerEnv) == "true" {
		legacy := NewLegacyLogger()
		legacy.SetLevel(config.Level)
		return legacy, nil
	}

	l, err := NewSlogLogger(config)
	if err != nil {
		return nil, fmt.Errorf("create slog logger: %w", err)
	}
	return l, nil
}

// Get returns the installed logger, or a NullLogger
func Get() Logger {
	global.RLock()
	defer global.RUnlock()

	if global.current == nil {
		return &NullLogger{}
	}
	return global.current
}

// With returns a child of the installed logger carrying args
func With(args ...any) Logger {
	return Get().With(args...)
}

// Component returns a child logger tagged with the component name
func Component(name string) Logger {
	return With(ComponentKey, name)
}

func Sync() error {
	return Get().Sync()
}

// Shutdown closes the installed logger. Without one it does nothing.
func Shutdown() error {
	global.Lock()
	l := global.current
	global.current = nil
	global.Unlock()

	if l == nil {
		return nil
	}
	// outside the lock: closing may log
	return l.Shutdown()
}

// NullLogger discards everything
type NullLogger struct{}

func (n *NullLogger) Debug(msg string, args ...any) {}
func (n *NullLogger) Info(msg string, args ...any)  {}
func (n *NullLogger) Warn(msg string, args ...any)  {}
func (n *NullLogger) Error(msg string, args ...any) {}
func (n *NullLogger) With(args ...any) Logger       { return n }
func (n *NullLogger) Sync() error                   { return nil }
func (n *NullLogger) Shutdown() error               { return nil }
