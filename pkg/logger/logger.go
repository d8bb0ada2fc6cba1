package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	log  *logrus.Logger
	once sync.Once
)

// Init configures the process-wide logger. Unknown levels fall back to info.
func Init(level string) {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	log = l
}

// GetLogger returns the shared logger, initialising it at info level on first use.
func GetLogger() *logrus.Logger {
	once.Do(func() {
		if log == nil {
			Init("info")
		}
	})
	return log
}
