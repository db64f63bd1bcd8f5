// Package tracker drives the fetch, record and report pipeline over release configurations.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cartavis/download-stats/internal/config"
	"github.com/cartavis/download-stats/internal/constants"
	"github.com/cartavis/download-stats/internal/downloads"
	"github.com/cartavis/download-stats/internal/fetcher"
	"github.com/cartavis/download-stats/internal/fileutils"
	"github.com/cartavis/download-stats/internal/ledger"
	"github.com/cartavis/download-stats/internal/report"
	"github.com/google/uuid"
)

// Fetcher reads the current download counters of release assets.
type Fetcher interface {
	Fetch(ctx context.Context, owner, repo, tag string, assets []string) (downloads.Snapshot, error)
}

// Publisher exports the counters recorded for a release.
type Publisher interface {
	Push(ctx context.Context, r config.Release, s downloads.Snapshot) error
}

// Tracker runs the pipeline of every release it is given, one after the other.
type Tracker struct {
	fetcher   Fetcher
	publisher Publisher
	now       func() time.Time
	log       *slog.Logger
	out       io.Writer
	subject   string
}

type options struct {
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
	out       io.Writer
	subject   string
}

// Options represents an optional function to override Tracker default values.
type Options func(*options)

// WithPublisher publishes the counters of every recorded release.
func WithPublisher(p Publisher) Options {
	return func(o *options) {
		o.publisher = p
	}
}

// WithNow sets the clock used to date ledger rows and charts.
func WithNow(now func() time.Time) Options {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger of the tracker.
func WithLogger(l *slog.Logger) Options {
	return func(o *options) {
		o.logger = l
	}
}

// WithOutput sets where progress messages are printed.
func WithOutput(w io.Writer) Options {
	return func(o *options) {
		o.out = w
	}
}

// WithSubject sets the project description used in chart titles.
func WithSubject(subject string) Options {
	return func(o *options) {
		o.subject = subject
	}
}

// New returns a Tracker reading counters from f.
func New(f Fetcher, args ...Options) Tracker {
	opts := options{
		now:     time.Now,
		logger:  slog.Default(),
		out:     os.Stdout,
		subject: constants.DefaultSubject,
	}
	for _, opt := range args {
		opt(&opts)
	}

	return Tracker{
		fetcher:   f,
		publisher: opts.publisher,
		now:       opts.now,
		log:       opts.logger,
		out:       opts.out,
		subject:   opts.subject,
	}
}

// Run fetches, records and charts every release in order.
//
// A release whose counters can't be fetched is skipped and leaves its files untouched.
// Any ledger or chart failure stops the run. Publishing failures are only logged.
func (t Tracker) Run(ctx context.Context, releases []config.Release) error {
	for _, r := range releases {
		if err := ctx.Err(); err != nil {
			return err
		}

		log := t.log.With("release", r.Name, "tag", r.Tag, "run_id", uuid.NewString())
		if err := t.update(ctx, log, r); err != nil {
			return fmt.Errorf("release %q: %w", r.Name, err)
		}
		fmt.Fprintf(t.out, "%s plot updated\n", r.Name)
	}
	return nil
}

func (t Tracker) update(ctx context.Context, log *slog.Logger, r config.Release) error {
	log.Debug("Fetching release counters", "owner", r.Owner, "repo", r.Repo, "assets", r.Assets)
	s, err := t.fetcher.Fetch(ctx, r.Owner, r.Repo, r.Tag, r.Assets)
	if fetcher.IsSkip(err) {
		log.Warn("Skipping release", "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	s = downloads.ApplyBaseline(s, r.Baseline)
	now := t.now()

	table, err := ledger.Update(r.Ledger, r.Assets, s, now)
	if err != nil {
		return err
	}
	log.Info("Ledger updated", "file", r.Ledger, "rows", table.Len(), "total", s.Total())

	if _, err := report.Render(table, r.Chart, r.Tag, report.WithNow(now), report.WithSubject(t.subject)); err != nil {
		return err
	}

	if t.publisher != nil {
		if err := t.publisher.Push(ctx, r, s); err != nil {
			log.Warn("Failed to publish metrics", "error", err)
		}
	}
	return nil
}

// Plot renders the chart of every release from its existing ledger, without fetching.
// Releases without ledger rows are skipped.
func (t Tracker) Plot(releases []config.Release) error {
	for _, r := range releases {
		log := t.log.With("release", r.Name, "tag", r.Tag)

		table, err := t.load(log, r)
		if err != nil {
			return fmt.Errorf("release %q: %w", r.Name, err)
		}
		if table.Len() == 0 {
			continue
		}

		if _, err := report.Render(table, r.Chart, r.Tag, report.WithNow(t.now()), report.WithSubject(t.subject)); err != nil {
			return fmt.Errorf("release %q: %w", r.Name, err)
		}
		fmt.Fprintf(t.out, "%s plot updated\n", r.Name)
	}
	return nil
}

// Stats is the summary of the ledger of a release.
type Stats struct {
	Release string         `yaml:"release" toml:"release"`
	Tag     string         `yaml:"tag" toml:"tag"`
	Summary report.Summary `yaml:"summary" toml:"summary"`
}

// Stats summarises the ledger of every release, without fetching or rendering.
// Releases without ledger rows are skipped.
func (t Tracker) Stats(releases []config.Release) ([]Stats, error) {
	var stats []Stats
	for _, r := range releases {
		log := t.log.With("release", r.Name, "tag", r.Tag)

		table, err := t.load(log, r)
		if err != nil {
			return nil, fmt.Errorf("release %q: %w", r.Name, err)
		}
		if table.Len() == 0 {
			continue
		}

		s, err := report.Summarize(table, t.now())
		if err != nil {
			return nil, fmt.Errorf("release %q: %w", r.Name, err)
		}
		stats = append(stats, Stats{Release: r.Name, Tag: r.Tag, Summary: s})
	}
	return stats, nil
}

// load reads the ledger of r. A missing or empty ledger is logged and returned as an empty table.
func (t Tracker) load(log *slog.Logger, r config.Release) (ledger.Table, error) {
	exists, err := fileutils.Exists(r.Ledger)
	if err != nil {
		return ledger.Table{}, err
	}
	if !exists {
		log.Warn("No ledger to report on", "file", r.Ledger)
		return ledger.Table{}, nil
	}

	table, err := ledger.Load(r.Ledger)
	if errors.Is(err, ledger.ErrEmptyLedger) {
		log.Warn("No ledger to report on", "file", r.Ledger)
		return ledger.Table{}, nil
	}
	if err != nil {
		return ledger.Table{}, err
	}
	if table.Len() == 0 {
		log.Warn("Ledger has no rows", "file", r.Ledger)
	}
	return table, nil
}
