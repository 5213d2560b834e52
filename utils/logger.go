package utils

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the service logger. Unknown levels fall back to info.
func NewLogger(out io.Writer, level, format string) *logrus.Logger {
	log := logrus.New()
	log.Out = out

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.Level = lvl

	if format == "text" {
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339}
		return log
	}
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	return log
}
