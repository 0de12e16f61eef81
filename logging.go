package sdfsandbox

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// LogLevel orders messages by severity. A logger drops messages below its
// threshold.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var logLevelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (lv LogLevel) String() string {
	if lv < LevelDebug || lv > LevelError {
		return fmt.Sprintf("LogLevel(%d)", int(lv))
	}
	return logLevelNames[lv]
}

// DefaultLogger writes debug and info lines to one writer and warnings and
// errors to another, each line tagged "[prefix] LEVEL: ".
type DefaultLogger struct {
	// Shared by every logger derived with WithPrefix.
	level *atomic.Int32

	prefix string
	out    *log.Logger
	err    *log.Logger
}

// NewDefaultLogger logs to stdout and stderr.
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewWriterLogger(os.Stdout, os.Stderr, prefix, debug)
}

func NewWriterLogger(out, errOut io.Writer, prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	l := &DefaultLogger{
		level:  new(atomic.Int32),
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
	l.SetDebug(debug)
	return l
}

// WithPrefix returns a logger that appends name to the prefix. It shares
// writers and threshold with l.
func (l *DefaultLogger) WithPrefix(name string) *DefaultLogger {
	child := *l
	switch {
	case name == "":
	case l.prefix == "":
		child.prefix = name
	default:
		child.prefix = l.prefix + "/" + name
	}
	return &child
}

func (l *DefaultLogger) Prefix() string { return l.prefix }

func (l *DefaultLogger) Level() LogLevel { return LogLevel(l.level.Load()) }

func (l *DefaultLogger) SetLevel(lv LogLevel) { l.level.Store(int32(lv)) }

func (l *DefaultLogger) DebugEnabled() bool { return l.Level() <= LevelDebug }

// SetDebug switches between the debug and info thresholds.
func (l *DefaultLogger) SetDebug(enabled bool) {
	if enabled {
		l.SetLevel(LevelDebug)
	} else {
		l.SetLevel(LevelInfo)
	}
}

func (l *DefaultLogger) logf(lv LogLevel, format string, args ...any) {
	if lv < l.Level() {
		return
	}
	dst := l.out
	if lv >= LevelWarn {
		dst = l.err
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix == "" {
		dst.Printf("%s: %s", lv, msg)
		return
	}
	dst.Printf("[%s] %s: %s", l.prefix, lv, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *DefaultLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) SetDebug(bool)         {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// orNop never returns nil.
func orNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// subLogger tags l's output with name when l supports prefixes.
func subLogger(l Logger, name string) Logger {
	if d, ok := l.(*DefaultLogger); ok {
		return d.WithPrefix(name)
	}
	return orNop(l)
}
