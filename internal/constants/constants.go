// Package constants is responsible for defining the constants used in the application.
package constants

import (
	"log/slog"
	"time"
)

var (
	// Version is the version of the application.
	Version = "Dev"
)

const (
	// CmdName is the name of the command line tool.
	CmdName = "download-stats"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn

	// DefaultAPIURL is the base URL of the release hosting API.
	DefaultAPIURL = "https://api.github.com"

	// GitHubAcceptHeader is the media type requested from the release hosting API.
	GitHubAcceptHeader = "application/vnd.github+json"

	// DefaultStatsDir is the directory relative ledger and chart paths are resolved against.
	DefaultStatsDir = "/var/www/stats"

	// DefaultTimeout is the default timeout of a single release listing request.
	DefaultTimeout = 30 * time.Second

	// DefaultSubject is the project description shown in chart titles.
	DefaultSubject = "cartavis/carta standalone package"

	// DefaultPushJob is the Pushgateway job name used when publishing metrics.
	DefaultPushJob = "download_stats"

	// DateLayout is the layout of the dates stored in the ledger and shown on charts.
	DateLayout = "2006-01-02"

	// WindowDays is the number of trailing days shown on charts and summarised.
	WindowDays = 30

	// LockExt is appended to a ledger path to name its lock file.
	LockExt = ".lock"
)
