// Package logger wraps logrus behind a small structured-logging interface,
// the way github.com/nabbar/golib/logger wraps it (and hclog/jwalterweatherman)
// behind its own Logger interface. This rig only ever needs one sink, so the
// hook-aggregator and third-party adapter methods of the teacher
// (SetHashicorpHCLog, SetSPF13Level, ...) are dropped; the level/field/
// component shape is kept.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level mirrors logrus levels under the rig's own name, so callers never
// import logrus directly.
type Level = logrus.Level

const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
	FatalLevel = logrus.FatalLevel
)

// Logger is the structured logger every rig subsystem depends on.
type Logger interface {
	Debug(message string, args ...interface{})
	Info(message string, args ...interface{})
	Warning(message string, args ...interface{})
	Error(message string, args ...interface{})
	Fatal(message string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	SetLevel(lvl Level)
	SetOutput(w io.Writer)
}

// Fields is a structured field set attached to a log entry.
type Fields map[string]interface{}

type logger struct {
	entry *logrus.Entry
}

// New builds a Logger writing JSON-ish text lines to stderr at Info level,
// matching the teacher's default construction in nabbar-golib/logger.
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logger{entry: logrus.NewEntry(l)}
}

func (l *logger) Debug(message string, args ...interface{}) {
	l.entry.Debugf(message, args...)
}

func (l *logger) Info(message string, args ...interface{}) {
	l.entry.Infof(message, args...)
}

func (l *logger) Warning(message string, args ...interface{}) {
	l.entry.Warnf(message, args...)
}

func (l *logger) Error(message string, args ...interface{}) {
	l.entry.Errorf(message, args...)
}

func (l *logger) Fatal(message string, args ...interface{}) {
	l.entry.Fatalf(message, args...)
}

func (l *logger) WithField(key string, value interface{}) Logger {
	return &logger{entry: l.entry.WithField(key, value)}
}

func (l *logger) WithFields(fields Fields) Logger {
	return &logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logger) SetLevel(lvl Level) {
	l.entry.Logger.SetLevel(lvl)
}

func (l *logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}
