package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func installPlotCmd(app *App) {
	plotCmd := &cobra.Command{
		Use:   "plot [RELEASES](optional arguments)",
		Short: "Render release charts from their existing ledger",
		Long: `Render release charts from their existing ledger, without fetching anything.

If no releases are provided, the chart of every configured release is rendered.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			releases, err := app.releases(args)
			if err != nil {
				return err
			}

			t, err := app.newTracker(cmd)
			if err != nil {
				return err
			}

			slog.Info("Running plot command", "releases", len(releases))
			return t.Plot(releases)
		},
	}

	app.cmd.AddCommand(plotCmd)
}
