package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func installUpdateCmd(app *App) {
	updateCmd := &cobra.Command{
		Use:   "update [RELEASES](optional arguments)",
		Short: "Fetch, record and plot the download counters of releases",
		Long: `Fetch, record and plot the download counters of releases.

If no releases are provided, every configured release is updated, in configuration order.
A release which can't be fetched is skipped and its ledger and chart are left untouched.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.updateRun(cmd, args)
		},
	}

	app.cmd.AddCommand(updateCmd)
}

func (a *App) updateRun(cmd *cobra.Command, names []string) error {
	releases, err := a.releases(names)
	if err != nil {
		return err
	}

	t, err := a.newTracker(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Running update command", "releases", len(releases))
	return t.Run(ctx, releases)
}
