package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var _log = logrus.New()

// Init configures the shared logger. Production output is JSON for log
// shipping; debug mode switches to full-timestamp text and Debug level.
func Init(debug bool, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	_log.SetOutput(out)
	if debug {
		_log.SetLevel(logrus.DebugLevel)
		_log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	_log.SetLevel(logrus.InfoLevel)
	_log.SetFormatter(&logrus.JSONFormatter{})
}

// Log returns an entry on the shared logger.
func Log() *logrus.Entry {
	return logrus.NewEntry(_log)
}

// WithFields returns an entry carrying the provided fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log().WithFields(fields)
}

// WithComponent returns an entry tagged with a component name. Long-lived
// subsystems use this so their lines can be filtered.
func WithComponent(name string) *logrus.Entry {
	return Log().WithField("component", name)
}
