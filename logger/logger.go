package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

const projectName = "cadence"

var (
	projectLogger *logrus.Logger
	once          sync.Once
)

func initProjectLogger() {
	projectLogger = logrus.New()
	projectLogger.SetOutput(os.Stderr)
	projectLogger.SetLevel(logrus.InfoLevel)
	projectLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
}

// GetProjectLogger returns the shared logger for the project.
func GetProjectLogger() *logrus.Entry {
	once.Do(initProjectLogger)
	return projectLogger.WithField("name", projectName)
}

// SetLevel parses a logrus level name ("debug", "info", "warn"...) and applies it
// to the project logger.
func SetLevel(level string) error {
	once.Do(initProjectLogger)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	projectLogger.SetLevel(lvl)
	return nil
}

// SetOutput redirects the project logger.
func SetOutput(w io.Writer) {
	once.Do(initProjectLogger)
	projectLogger.SetOutput(w)
}

// New creates a standalone logger entry writing to w at the given level. Useful for
// capturing log output in tests.
func New(w io.Writer, level logrus.Level) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return logrus.NewEntry(l).WithField("name", projectName)
}
