package common

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// loggerPtr holds the process-wide logger. It is silent until SetLogger is called so that
// library use and tests produce no output by default.
var loggerPtr atomic.Pointer[logrus.Logger]

func init() {
	loggerPtr.Store(silentLogger())
}

// SetLogger replaces the logger used by every engine package.
// Passing nil restores the silent default.
//
// Parameters:
//   - l: the logger to install, or nil
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = silentLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current process-wide logger. Safe for concurrent use.
//
// Returns:
//   - *logrus.Logger: the installed logger
func Logger() *logrus.Logger {
	return loggerPtr.Load()
}

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}
