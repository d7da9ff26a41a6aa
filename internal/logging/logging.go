// Package logging holds the logrus logger shared by the gommal packages.
package logging

import (
	"os"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// DebugEnv switches the logger to debug level when it parses as true.
	DebugEnv = "GOMMAL_DEBUG"
	// DeinitEnv enables reporting of teardown failures.
	DeinitEnv = "GOMMAL_ENABLE_LOG"
)

var (
	loggerOnce sync.Once
	logger     *logrus.Logger

	deinitOnce    sync.Once
	deinitEnabled bool
)

// Logger returns the process-wide logger.
func Logger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()
		if debug, err := strconv.ParseBool(os.Getenv(DebugEnv)); err == nil && debug {
			logger.SetLevel(logrus.DebugLevel)
		}
	})
	return logger
}

// ParseDeinitFlag interprets a DeinitEnv value: a nonzero 8-bit number, or
// "true" / "yes".
func ParseDeinitFlag(s string) bool {
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		return n != 0
	}
	return s == "true" || s == "yes"
}

// DeinitEnabled reports whether teardown failures are logged. The
// environment is read on first use only.
func DeinitEnabled() bool {
	deinitOnce.Do(func() {
		deinitEnabled = ParseDeinitFlag(os.Getenv(DeinitEnv))
	})
	return deinitEnabled
}

// Deinit logs a teardown failure if DeinitEnabled. Teardown paths never
// return errors to their caller.
func Deinit(err error, fields logrus.Fields) {
	if err == nil || !DeinitEnabled() {
		return
	}
	Logger().WithFields(fields).WithError(err).Error("deinit error")
}

// Recover logs a panic raised inside a native callback and swallows it.
// Use as: defer logging.Recover("port callback").
func Recover(where string) {
	if r := recover(); r != nil {
		Logger().WithField("callback", where).Errorf("panic recovered in callback: %v", r)
	}
}
