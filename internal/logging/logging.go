package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates the application logger. Debug mode gets human-readable text
// output; release mode gets JSON at info level.
func New(appName, ginMode string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if ginMode == "release" {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger.WithFields(logrus.Fields{"app": appName, "mode": ginMode}).Info("logger initialized")
	return logger
}
