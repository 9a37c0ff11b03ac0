package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	projectLogger *logrus.Logger
	once          sync.Once
)

// GetProjectLogger returns the logger shared by every package of the project.
func GetProjectLogger() *logrus.Logger {
	once.Do(func() {
		projectLogger = logrus.New()
		projectLogger.Out = os.Stderr
		projectLogger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
		projectLogger.Level = logrus.InfoLevel
	})
	return projectLogger
}

// SetLevel parses the given level name and applies it to the project logger.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	GetProjectLogger().SetLevel(lvl)
	return nil
}
