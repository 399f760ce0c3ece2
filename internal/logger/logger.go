// Package logger provides a centralized, leveled logging facade for the
// pricer. It keeps a small printf-style API at call sites and delegates
// formatting and output to logrus.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("pricing %d contracts", n)
//	logger.Debugf("d1=%f d2=%f", d1, d2)
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only failures.
	Info               // Info logs high-level progress.
	Debug              // Debug logs intermediate pricing terms.
	Trace              // Trace logs every step of the chain.
)

// base is the process-wide logger. Output goes to stderr so that stdout
// carries only the pricing result.
var base = newBase(os.Stderr)

func newBase(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(toLogrus(Info))
	return l
}

func toLogrus(l Level) logrus.Level {
	switch {
	case l <= Error:
		return logrus.ErrorLevel
	case l == Info:
		return logrus.InfoLevel
	case l == Debug:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// SetVerbosity sets the global logging verbosity (0=Error … 3=Trace).
// Typically called once after parsing CLI flags.
func SetVerbosity(v int) {
	base.SetLevel(toLogrus(Level(v)))
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// WithField returns an entry carrying one structured field.
func WithField(key string, value any) *logrus.Entry {
	return base.WithField(key, value)
}

// Errorf logs an error-level message.
func Errorf(format string, args ...any) {
	base.Errorf(format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	base.Infof(format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	base.Debugf(format, args...)
}

// Tracef logs very detailed execution traces.
func Tracef(format string, args ...any) {
	base.Tracef(format, args...)
}
