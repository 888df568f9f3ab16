// internal/logging/logging.go
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// NewLogger creates a logger with a specific level and format.
// Logs go to stderr; stdout is reserved for progress output.
func NewLogger(level, format string) *logrus.Logger {
	return newLogger(os.Stderr, level, format, isatty.IsTerminal(os.Stderr.Fd()))
}

func newLogger(out io.Writer, level, format string, terminal bool) *logrus.Logger {
	var log = logrus.New()

	log.SetOutput(out)

	switch strings.ToLower(format) {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		// auto: humans get text, pipes and collectors get JSON
		if terminal {
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		} else {
			log.SetFormatter(&logrus.JSONFormatter{})
		}
	}

	switch strings.ToLower(level) {
	case "trace":
		log.SetLevel(logrus.TraceLevel)
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
