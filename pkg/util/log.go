package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger carries diagnostics (state transitions, SSH negotiation, disconnect
// errors) on stderr. Operator notices are not log lines; they go to stdout
// through the console reporter so a run transcript never mixes with them.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.WarnLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
}

// SetLogLevel sets the level by name ("debug", "warn", ...).
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetVerbose maps the -v flag: debug when on, warnings only otherwise.
func SetVerbose(on bool) {
	if on {
		Logger.SetLevel(logrus.DebugLevel)
		return
	}
	Logger.SetLevel(logrus.WarnLevel)
}

// SetLogOutput redirects diagnostics, e.g. to a file next to the host logs.
func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches to one JSON object per line for log shippers.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// WithDevice tags entries with the target address.
func WithDevice(address string) *logrus.Entry {
	return Logger.WithField("device", address)
}

// WithTarget tags entries with the target address and device kind.
func WithTarget(address, kind string) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{
		"device": address,
		"kind":   kind,
	})
}

// WithRun tags entries with the batch run ID recorded in the audit log.
func WithRun(runID string) *logrus.Entry {
	return Logger.WithField("run", runID)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}
