package main

import (
	"io"

	"github.com/sirupsen/logrus"
)

// initLogger builds the process logger from the log section.
func initLogger(cfg LogConfig, out io.Writer, session string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	logger.AddHook(sessionHook{session: session})
	logger.Debug("debug logging enabled")
	return logger
}

// sessionHook stamps every entry with the id of this run.
type sessionHook struct {
	session string
}

func (h sessionHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h sessionHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["session"]; !ok {
		entry.Data["session"] = h.session
	}
	return nil
}
