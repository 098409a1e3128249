package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger from a LOGLEVEL value such as
// "DEBUG" or "warning". Unknown levels fall back to info.
func Setup(level string) {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	parsed, err := ParseLevel(level)
	log.SetLevel(parsed)
	if err != nil {
		log.WithError(err).Warnf("unknown LOGLEVEL %q, using %s", level, parsed)
	}
}

// ParseLevel accepts logrus level names plus the Python-style aliases
// WARN and CRITICAL.
func ParseLevel(level string) (log.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		return log.InfoLevel, nil
	case "critical":
		return log.FatalLevel, nil
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel, err
	}
	return parsed, nil
}
