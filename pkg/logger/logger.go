// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// Options select level, format and destination. An empty Level falls back
// to debug in development and info otherwise; an empty Format picks text in
// development and JSON otherwise.
type Options struct {
	Level       string
	Format      string
	Development bool
	Output      io.Writer
}

// New builds a logger without touching the global one
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	level := strings.ToLower(opts.Level)
	if level == "" {
		level = "info"
		if opts.Development {
			level = "debug"
		}
	}
	if parsed, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(parsed)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", opts.Level).Warn("Invalid LOG_LEVEL, using INFO")
	}

	format := strings.ToLower(opts.Format)
	if format == "" && !opts.Development {
		format = "json"
	}
	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	// stdout carries CLI reports
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	log.SetOutput(opts.Output)

	return log
}

// InitLogger builds the logger and installs it as the global one
func InitLogger(opts Options) *logrus.Logger {
	Logger = New(opts)
	return Logger
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger(Options{})
	}
	return Logger
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// WithService creates a logger with service context
func WithService(serviceName string) *logrus.Entry {
	return GetLogger().WithField("service", serviceName)
}

// RunFields are attached to every log line of a generation run
func RunFields(runID, site string, requested int) logrus.Fields {
	return logrus.Fields{
		"run_id":    runID,
		"site":      site,
		"requested": requested,
	}
}
