package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "keytap",
	})

	// LOG_LEVEL wins over the default until config or flags call SetLevel
	if err := SetLevel(os.Getenv("LOG_LEVEL")); err != nil {
		Logger.SetLevel(log.InfoLevel)
	}
}

// SetLevel sets the level from a name such as "debug" or "WARN". An empty
// name selects info.
func SetLevel(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		name = "info"
	case "warning":
		name = "warn"
	}

	level, err := log.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q", name)
	}
	Logger.SetLevel(level)
	return nil
}

// Level returns the current level name.
func Level() string {
	return Logger.GetLevel().String()
}

// SetOutput redirects log output, e.g. away from a TUI.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}
