package app

import (
	"strings"

	"github.com/onswift/backend/pkg/logger"
)

// ConfigureLogging installs the global logger. Blank values fall back to info level JSON output.
func ConfigureLogging(level, format string) error {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "info"
	}
	return logger.Init(level, format)
}
