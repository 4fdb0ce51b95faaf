// Package logging builds the process logger shared by every component.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a text logger with full timestamps. Unknown level names fall back to info.
func NewLogger(level string) *logrus.Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo is NewLogger writing to out.
func NewLoggerTo(out io.Writer, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
