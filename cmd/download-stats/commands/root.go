// Package commands implements the download-stats command line.
package commands

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cartavis/download-stats/internal/cli"
	"github.com/cartavis/download-stats/internal/config"
	"github.com/cartavis/download-stats/internal/constants"
	"github.com/cartavis/download-stats/internal/fetcher"
	"github.com/cartavis/download-stats/internal/metrics"
	"github.com/cartavis/download-stats/internal/tracker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig

	now func() time.Time
}

// appConfig holds the configuration for the application.
type appConfig struct {
	Verbosity      int              `mapstructure:"verbose"`
	APIURL         string           `mapstructure:"api-url"`
	StatsDir       string           `mapstructure:"stats-dir"`
	Timeout        time.Duration    `mapstructure:"timeout"`
	PushgatewayURL string           `mapstructure:"pushgateway-url"`
	PushJob        string           `mapstructure:"push-job"`
	Subject        string           `mapstructure:"subject"`
	Releases       []config.Release `mapstructure:"-"`
}

type options struct {
	now func() time.Time
}

// Options represents an optional function to override App default values.
type Options func(*options)

// New creates a new App instance with default values.
func New(args ...Options) (*App, error) {
	opts := options{now: time.Now}
	for _, opt := range args {
		opt(&opts)
	}

	a := App{now: opts.now}

	a.cmd = &cobra.Command{
		Use:   constants.CmdName,
		Short: "Track the download counts of release assets",
		Long: `Track the download counts of release assets.

Without any subcommand, the download counters of every configured release are fetched,
appended to their ledger and plotted over the last 30 days.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetVerbosity(a.config.Verbosity) // Set verbosity before loading config
			if err := cli.InitViperConfig(constants.CmdName, a.cmd, a.viper); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config, viper.DecodeHook(config.DecodeHook())); err != nil {
				return fmt.Errorf("unable to strictly decode configuration into struct: %w", err)
			}
			if f := a.viper.ConfigFileUsed(); f != "" {
				rs, err := config.ReadReleases(f)
				if err != nil {
					return err
				}
				a.config.Releases = rs
			}
			slog.Debug("got app config", "config", a.config)

			cli.SetVerbosity(a.config.Verbosity)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updateRun(cmd, nil)
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	if err := installRootCmd(&a); err != nil {
		return nil, err
	}
	cli.InstallConfigFlag(a.cmd)

	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}

	installUpdateCmd(&a)
	installPlotCmd(&a)
	installStatsCmd(&a)
	a.installVersion()

	return &a, nil
}

func installRootCmd(app *App) error {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().StringVar(&app.config.APIURL, "api-url", constants.DefaultAPIURL, "base URL of the release hosting API")
	cmd.PersistentFlags().StringVar(&app.config.StatsDir, "stats-dir", constants.DefaultStatsDir, "base directory of relative ledger and chart paths")
	cmd.PersistentFlags().DurationVar(&app.config.Timeout, "timeout", constants.DefaultTimeout, "timeout of a release listing request, 0 to disable")
	cmd.PersistentFlags().StringVar(&app.config.PushgatewayURL, "pushgateway-url", "", "Prometheus Pushgateway to publish counters to, disabled if empty")
	cmd.PersistentFlags().StringVar(&app.config.PushJob, "push-job", constants.DefaultPushJob, "Pushgateway job name")
	cmd.PersistentFlags().StringVar(&app.config.Subject, "subject", constants.DefaultSubject, "project description shown in chart titles")

	if err := cmd.MarkPersistentFlagDirname("stats-dir"); err != nil {
		return fmt.Errorf("failed to mark stats-dir flag as directory: %w", err)
	}
	return nil
}

// Run executes the command and associated process, returning an error if any.
func (a App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// RootCmd returns the root command.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}

// releases returns the configured releases called names, with their paths resolved against the stats directory.
// An unknown name is a usage error.
func (a *App) releases(names []string) ([]config.Release, error) {
	rs := a.config.Releases
	if len(rs) == 0 {
		rs = config.Defaults()
	}

	rs, err := config.Resolve(rs, a.config.StatsDir)
	if err != nil {
		return nil, err
	}

	selected, err := config.Select(rs, names)
	if err != nil {
		a.cmd.SilenceUsage = false
		return nil, err
	}
	return selected, nil
}

// newTracker returns a tracker wired to the configured API and Pushgateway, printing to cmd output.
func (a App) newTracker(cmd *cobra.Command) (tracker.Tracker, error) {
	f := fetcher.New(
		fetcher.WithBaseURL(a.config.APIURL),
		fetcher.WithHTTPClient(&http.Client{Timeout: a.config.Timeout}),
	)

	opts := []tracker.Options{
		tracker.WithNow(a.now),
		tracker.WithOutput(cmd.OutOrStdout()),
		tracker.WithSubject(a.config.Subject),
	}
	if a.config.PushgatewayURL != "" {
		p, err := metrics.NewPusher(a.config.PushgatewayURL, metrics.WithJob(a.config.PushJob), metrics.WithNow(a.now))
		if err != nil {
			return tracker.Tracker{}, err
		}
		opts = append(opts, tracker.WithPublisher(p))
	}

	return tracker.New(f, opts...), nil
}
