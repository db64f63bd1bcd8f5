package commands

import (
	"io"
	"time"
)

type (
	AppConfig = appConfig
)

// Config returns the configuration of the app.
func (a *App) Config() AppConfig {
	return a.config
}

// SetArgs sets the arguments for the command.
func (a *App) SetArgs(args []string) {
	a.cmd.SetArgs(args)
}

// SetOut sets where the command prints its output.
func (a *App) SetOut(w io.Writer) {
	a.cmd.SetOut(w)
}

// WithNow sets the clock used to date ledger rows.
func WithNow(now func() time.Time) Options {
	return func(o *options) {
		o.now = now
	}
}
