package utilities

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// InitLogger configures the shared logger. level is a logrus level name and
// format is "text" or "json".
func InitLogger(level, format string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", format)
	}
	return nil
}

// SetLogOutput redirects the shared logger, mostly for tests.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Logger exposes the underlying logrus logger for field-based logging.
func Logger() *logrus.Logger {
	return logger
}

// LogRequest records one served HTTP request.
func LogRequest(method, path, remoteAddr, requestID string, status int, duration time.Duration) {
	logger.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"remote_addr": remoteAddr,
		"request_id":  requestID,
		"status":      status,
		"duration":    duration.String(),
	}).Info("request")
}

// LogError logs err together with what was being attempted.
func LogError(err error, context string) {
	logger.WithError(err).Error(context)
}

func LogWarn(format string, v ...interface{}) {
	logger.Warnf(format, v...)
}

func LogDebug(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

func LogInfo(format string, v ...interface{}) {
	logger.Infof(format, v...)
}
