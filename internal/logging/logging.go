// Package logging configures the process-wide charmbracelet/log logger
// from the SIDEDIFF_LOG environment variable. All output goes to
// stderr so it never interleaves with the bubbletea-owned terminal
// screen.
package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Setup parses SIDEDIFF_LOG ("debug"/"info"/"warn"/"error") and
// configures the default logger's level and output. An unset or
// unrecognized value falls back to warn rather than erroring.
func Setup() {
	log.SetOutput(os.Stderr)
	log.SetLevel(levelFromEnv(os.Getenv("SIDEDIFF_LOG")))
}

func levelFromEnv(raw string) log.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	case "warn", "":
		return log.WarnLevel
	default:
		return log.WarnLevel
	}
}
