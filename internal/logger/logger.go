package logger

import (
	"io"
	"os"

	"payflow/config"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Production and LOG_FORMAT=json use the JSON formatter.
func New(cfg *config.Config) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if cfg.Log.Format == "json" || cfg.Server.Env == "production" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
		l.WithField("level", cfg.Log.Level).Warn("unknown log level, using info")
	}
	l.SetLevel(level)
	return l
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
