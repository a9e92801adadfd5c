// Package logging adapts logrus to mono's types.Logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/go-monolith/mono/pkg/types"
	log "github.com/sirupsen/logrus"
)

// Logger is a types.Logger writing through a logrus entry.
type Logger struct {
	entry *log.Entry
}

var _ types.Logger = (*Logger)(nil)

// New creates a logger for the given level (debug, info, warn, error) and
// format (text or json) writing to stderr.
func New(level, format string) (*Logger, error) {
	return NewWithOutput(level, format, os.Stderr)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(level, format string, out io.Writer) (*Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	l := log.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	switch format {
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return FromLogrus(l), nil
}

// FromLogrus wraps an existing logrus logger.
func FromLogrus(l *log.Logger) *Logger {
	return &Logger{entry: log.NewEntry(l)}
}

func (l *Logger) Debug(msg string, args ...any) { l.entry.WithFields(fields(args)).Debug(msg) }
func (l *Logger) Info(msg string, args ...any)  { l.entry.WithFields(fields(args)).Info(msg) }
func (l *Logger) Warn(msg string, args ...any)  { l.entry.WithFields(fields(args)).Warn(msg) }
func (l *Logger) Error(msg string, args ...any) { l.entry.WithFields(fields(args)).Error(msg) }

// With returns a logger carrying the given key/value pairs on every line.
func (l *Logger) With(args ...any) types.Logger {
	return &Logger{entry: l.entry.WithFields(fields(args))}
}

// WithModule tags every line with the module name.
func (l *Logger) WithModule(name string) types.Logger {
	return &Logger{entry: l.entry.WithField("module", name)}
}

// WithError attaches err under logrus' standard error key.
func (l *Logger) WithError(err error) types.Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// fields turns alternating key/value args into logrus fields. A trailing key
// without a value is kept under "!BADKEY", like slog does.
func fields(args []any) log.Fields {
	if len(args) == 0 {
		return nil
	}
	f := make(log.Fields, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			f["!BADKEY"] = key
			break
		}
		f[key] = args[i+1]
	}
	return f
}
