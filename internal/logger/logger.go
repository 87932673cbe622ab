// Package logger provides the application-wide structured logger.
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	root     hclog.Logger
	rootOnce sync.Once
)

// Root returns the process-wide root logger, creating it on first use.
// The level is taken from the LOG_LEVEL environment variable (default info),
// JSON output is enabled when LOG_FORMAT=json.
func Root() hclog.Logger {
	rootOnce.Do(func() {
		root = hclog.New(&hclog.LoggerOptions{
			Name:       "streamcast",
			Level:      levelFromEnv(),
			JSONFormat: strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
			Output:     os.Stderr,
		})
	})
	return root
}

// New returns a named sub-logger of the root logger.
func New(name string) hclog.Logger {
	return Root().Named(name)
}

func levelFromEnv() hclog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "trace":
		return hclog.Trace
	case "debug":
		return hclog.Debug
	case "warn":
		return hclog.Warn
	case "error":
		return hclog.Error
	default:
		return hclog.Info
	}
}
