// Package logging exposes a context-aware logger backed by logrus.
// Every logger built from a request context carries its correlation id.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"voxgate/internal/correlation"
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	WithField(key string, value any) Logger
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

// Options configures the process-wide logrus factory
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

type logrusFactory struct {
	base *logrus.Logger
}

// NewLogrusFactory builds a factory from level ("debug", "info", ...) and format ("json" or "text")
func NewLogrusFactory(opts Options) (LoggerFactory, error) {
	base := logrus.New()

	level, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	base.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q: expected json or text", opts.Format)
	}

	if opts.Output != nil {
		base.SetOutput(opts.Output)
	} else {
		base.SetOutput(os.Stdout)
	}

	return &logrusFactory{base: base}, nil
}

func (f *logrusFactory) CreateLogger(ctx context.Context) Logger {
	return newEntryLogger(f.base, ctx)
}

func NewLogger(ctx context.Context) Logger {
	factory := GetLoggerFactory()
	if factory != nil {
		return factory.CreateLogger(ctx)
	}

	return newEntryLogger(logrus.StandardLogger(), ctx)
}

func newEntryLogger(base *logrus.Logger, ctx context.Context) Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	entry := base.WithContext(ctx)
	if id := correlation.FromContext(ctx); id != "" {
		entry = entry.WithField(correlation.LogField, id)
	}
	return &logrusLogger{entry: entry}
}
