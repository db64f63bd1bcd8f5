package commands

import (
	"fmt"
	"io"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/cartavis/download-stats/internal/tracker"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statsFormats = []string{"text", "yaml", "toml"}

func installStatsCmd(app *App) {
	var format string

	statsCmd := &cobra.Command{
		Use:   "stats [RELEASES](optional arguments)",
		Short: "Print the download statistics of the last 30 days",
		Long: `Print the download statistics of the last 30 days from the ledger of releases.

Nothing is fetched nor rendered. If no releases are provided, every configured release is printed.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(statsFormats, format) {
				app.cmd.SilenceUsage = false
				return fmt.Errorf("unknown format %q, expected one of %v", format, statsFormats)
			}

			releases, err := app.releases(args)
			if err != nil {
				return err
			}

			t, err := app.newTracker(cmd)
			if err != nil {
				return err
			}

			stats, err := t.Stats(releases)
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), format, stats)
		},
	}

	statsCmd.Flags().StringVarP(&format, "format", "f", "text", fmt.Sprintf("output format, one of %v", statsFormats))

	app.cmd.AddCommand(statsCmd)
}

func printStats(w io.Writer, format string, stats []tracker.Stats) error {
	switch format {
	case "yaml":
		d, err := yaml.Marshal(stats)
		if err != nil {
			return fmt.Errorf("could not marshal statistics: %v", err)
		}
		_, err = w.Write(d)
		return err
	case "toml":
		return toml.NewEncoder(w).Encode(struct {
			Releases []tracker.Stats `toml:"releases"`
		}{stats})
	}

	for i, s := range stats {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s) downloads: %d\n", s.Release, s.Tag, s.Summary.Total)
		for _, c := range s.Summary.Latest {
			fmt.Fprintf(w, "  %s: %d\n", c.Name, c.Count)
		}
		fmt.Fprint(w, s.Summary.Text())
	}
	return nil
}
