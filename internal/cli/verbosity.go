package cli

import (
	"log/slog"

	"github.com/cartavis/download-stats/internal/constants"
)

// SetVerbosity sets the default logger level from the number of -v flags: one shows info, two or more debug.
func SetVerbosity(count int) {
	level := constants.DefaultLogLevel
	switch {
	case count >= 2:
		level = slog.LevelDebug
	case count == 1:
		level = slog.LevelInfo
	}
	slog.SetLogLoggerLevel(level)
}
