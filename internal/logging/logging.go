// internal/logging/logging.go

package logging

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. level is any logrus level name (info when
// unparseable); format "json" selects the JSON formatter, anything else text.
func New(level, format string) *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// LogConnect logs a message when a TCP client connects.
func LogConnect(logger logrus.FieldLogger, conn uuid.UUID, remote string) {
	logger.WithFields(logrus.Fields{
		"conn":   conn,
		"remote": remote,
	}).Info("client connected")
}

// LogDisconnect logs a message when a TCP client disconnects.
func LogDisconnect(logger logrus.FieldLogger, conn uuid.UUID, remote string, err error) {
	fields := logrus.Fields{
		"conn":   conn,
		"remote": remote,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("client disconnected")
}
