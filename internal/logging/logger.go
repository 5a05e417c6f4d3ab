// Package logging provides the node-wide Logger abstraction: a small
// leveled interface wrapping the standard log package instead of
// pulling in a logging framework, with a runtime-toggleable debug
// level.
package logging

import (
	"fmt"
	"log"
	"os"
)

const (
	calldepth = 2
	levelInfo = "INFO"
	levelWarn = "WARN"
	levelErr  = "ERROR"
	levelDbg  = "DEBUG"
	levelFtl  = "FATAL"
)

// Logger is implemented by every logger this module passes around.
// Nodes and the HTTP server take a Logger rather than reaching for a
// package-level instance; the HTTP transport logs its response-decode
// failures through a package-level logger instead.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
	ToggleDebug(value bool) bool
}

func level(prefix, message string) string {
	return fmt.Sprintf("[%s]: %s", prefix, message)
}

// StdLogger is the Logger implementation this module ships; callers
// construct it and pass it in explicitly.
type StdLogger struct {
	*log.Logger
	debug bool
}

// NewStdLogger builds a StdLogger writing to stderr with a node-scoped
// prefix, so interleaved multi-node test output stays attributable.
func NewStdLogger(prefix string) *StdLogger {
	return &StdLogger{
		Logger: log.New(os.Stderr, prefix+" ", log.LstdFlags),
		debug:  false,
	}
}

func (l *StdLogger) Info(v ...interface{}) {
	l.Output(calldepth, level(levelInfo, fmt.Sprint(v...)))
}

func (l *StdLogger) Infof(format string, v ...interface{}) {
	l.Output(calldepth, level(levelInfo, fmt.Sprintf(format, v...)))
}

func (l *StdLogger) Warn(v ...interface{}) {
	l.Output(calldepth, level(levelWarn, fmt.Sprint(v...)))
}

func (l *StdLogger) Warnf(format string, v ...interface{}) {
	l.Output(calldepth, level(levelWarn, fmt.Sprintf(format, v...)))
}

func (l *StdLogger) Error(v ...interface{}) {
	l.Output(calldepth, level(levelErr, fmt.Sprint(v...)))
}

func (l *StdLogger) Errorf(format string, v ...interface{}) {
	l.Output(calldepth, level(levelErr, fmt.Sprintf(format, v...)))
}

func (l *StdLogger) Debug(v ...interface{}) {
	if l.debug {
		l.Output(calldepth, level(levelDbg, fmt.Sprint(v...)))
	}
}

func (l *StdLogger) Debugf(format string, v ...interface{}) {
	if l.debug {
		l.Output(calldepth, level(levelDbg, fmt.Sprintf(format, v...)))
	}
}

func (l *StdLogger) ToggleDebug(value bool) bool {
	l.debug = value
	return l.debug
}

func (l *StdLogger) Fatal(v ...interface{}) {
	l.Output(calldepth, level(levelFtl, fmt.Sprint(v...)))
	os.Exit(1)
}

func (l *StdLogger) Fatalf(format string, v ...interface{}) {
	l.Output(calldepth, level(levelFtl, fmt.Sprintf(format, v...)))
	os.Exit(1)
}
