package app

import (
	"strings"

	"github.com/cinetheque/api/pkg/logger"
)

// ConfigureLogging initialises the global logger from the configured level,
// defaulting to info when the level is blank.
func ConfigureLogging(level string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.Init(level)
}
