package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger is the default Logger, backed by log/slog.
// Messages and key/value pairs pass through a Sanitizer before they are written.
type SlogLogger struct {
	logger    *slog.Logger
	sanitizer *Sanitizer
	writers   []io.WriteCloser // owned; closed by Shutdown
}

// NewSlogLogger builds a logger writing to every configured output
func NewSlogLogger(config Config) (*SlogLogger, error) {
	var writers []io.Writer
	var owned []io.WriteCloser

	for _, output := range config.Outputs {
		switch output.Type {
		case OutputStdout:
			w, closer := streamWriter(output.Writer, os.Stdout)
			writers = append(writers, w)
			if closer != nil {
				owned = append(owned, closer)
			}
		case OutputStderr:
			w, closer := streamWriter(output.Writer, os.Stderr)
			writers = append(writers, w)
			if closer != nil {
				owned = append(owned, closer)
			}
		case OutputFile:
			if !config.File.Enabled {
				continue
			}
			fw, err := createFileWriter(config.File)
			if err != nil {
				closeAll(owned)
				return nil, fmt.Errorf("failed to create file writer: %w", err)
			}
			writers = append(writers, fw)
			owned = append(owned, fw)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	return &SlogLogger{
		logger:    slog.New(newHandler(io.MultiWriter(writers...), config)),
		sanitizer: NewSanitizer(),
		writers:   owned,
	}, nil
}

// streamWriter returns custom, or std when custom is nil. The closer is non-nil only
// for custom writers that are not one of the process streams.
func streamWriter(custom io.Writer, std *os.File) (io.Writer, io.WriteCloser) {
	if custom == nil {
		return std, nil
	}
	if wc, ok := custom.(io.WriteCloser); ok && wc != os.Stdout && wc != os.Stderr && wc != os.Stdin {
		return custom, wc
	}
	return custom, nil
}

func newHandler(w io.Writer, config Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: convertLevel(config.Level)}
	if config.Format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// createFileWriter opens a lumberjack rotating file
func createFileWriter(config FileConfig) (io.WriteCloser, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("log file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSizeMB,
		MaxAge:     config.MaxAgeDays,
		MaxBackups: config.MaxBackups,
		Compress:   config.Compress,
	}, nil
}

func closeAll(writers []io.WriteCloser) error {
	var lastErr error
	for _, w := range writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func convertLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *SlogLogger) Debug(msg string, args ...any) { emit(l.logger, l.sanitizer, slog.LevelDebug, msg, args) }
func (l *SlogLogger) Info(msg string, args ...any)  { emit(l.logger, l.sanitizer, slog.LevelInfo, msg, args) }
func (l *SlogLogger) Warn(msg string, args ...any)  { emit(l.logger, l.sanitizer, slog.LevelWarn, msg, args) }
func (l *SlogLogger) Error(msg string, args ...any) { emit(l.logger, l.sanitizer, slog.LevelError, msg, args) }

// With returns a child logger. Children never own writers.
func (l *SlogLogger) With(args ...any) Logger {
	return &childLogger{
		logger:    l.logger.With(l.sanitizer.SanitizeArgs(args)...),
		sanitizer: l.sanitizer,
	}
}

// Sync is a no-op; lumberjack writes through
func (l *SlogLogger) Sync() error {
	return nil
}

// Shutdown closes the owned writers
func (l *SlogLogger) Shutdown() error {
	return closeAll(l.writers)
}

func emit(logger *slog.Logger, s *Sanitizer, level slog.Level, msg string, args []any) {
	switch level {
	case slog.LevelDebug:
		logger.Debug(s.Sanitize(msg), s.SanitizeArgs(args)...)
	case slog.LevelWarn:
		logger.Warn(s.Sanitize(msg), s.SanitizeArgs(args)...)
	case slog.LevelError:
		logger.Error(s.Sanitize(msg), s.SanitizeArgs(args)...)
	default:
		logger.Info(s.Sanitize(msg), s.SanitizeArgs(args)...)
	}
}

type childLogger struct {
	logger    *slog.Logger
	sanitizer *Sanitizer
}

func (c *childLogger) Debug(msg string, args ...any) { emit(c.logger, c.sanitizer, slog.LevelDebug, msg, args) }
func (c *childLogger) Info(msg string, args ...any)  { emit(c.logger, c.sanitizer, slog.LevelInfo, msg, args) }
func (c *childLogger) Warn(msg string, args ...any)  { emit(c.logger, c.sanitizer, slog.LevelWarn, msg, args) }
func (c *childLogger) Error(msg string, args ...any) { emit(c.logger, c.sanitizer, slog.LevelError, msg, args) }

func (c *childLogger) With(args ...any) Logger {
	return &childLogger{
		logger:    c.logger.With(c.sanitizer.SanitizeArgs(args)...),
		sanitizer: c.sanitizer,
	}
}

func (c *childLogger) Sync() error     { return nil }
func (c *childLogger) Shutdown() error { return nil }
