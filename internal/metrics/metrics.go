// Package metrics publishes the latest download counters of a release to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/cartavis/download-stats/internal/config"
	"github.com/cartavis/download-stats/internal/constants"
	"github.com/cartavis/download-stats/internal/downloads"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/ubuntu/decorate"
)

// ErrNoURL is returned when creating a Pusher without a Pushgateway URL.
var ErrNoURL = errors.New("no pushgateway URL configured")

// Pusher pushes release counters to a Pushgateway.
type Pusher struct {
	url string
	job string
	now func() time.Time
}

type options struct {
	job string
	now func() time.Time
}

// Options represents an optional function to override Pusher default values.
type Options func(*options)

// WithJob sets the Pushgateway job name.
func WithJob(job string) Options {
	return func(o *options) {
		o.job = job
	}
}

// WithNow sets the clock used for the last update timestamp.
func WithNow(now func() time.Time) Options {
	return func(o *options) {
		o.now = now
	}
}

// NewPusher returns a Pusher targeting the Pushgateway at url.
func NewPusher(url string, args ...Options) (*Pusher, error) {
	if url == "" {
		return nil, ErrNoURL
	}

	opts := options{
		job: constants.DefaultPushJob,
		now: time.Now,
	}
	for _, opt := range args {
		opt(&opts)
	}

	return &Pusher{url: url, job: opts.job, now: opts.now}, nil
}

// Push replaces the metrics of the release tag on the Pushgateway with the counters of s.
func (p *Pusher) Push(ctx context.Context, r config.Release, s downloads.Snapshot) (err error) {
	defer decorate.OnError(&err, "could not push metrics of %q", r.Name)

	reg := prometheus.NewRegistry()

	counts := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "release_asset_downloads",
			Help: "Download count of a release asset, baseline included.",
		},
		// The tag is carried by the push grouping key.
		[]string{"owner", "repo", "asset"},
	)
	updated := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "release_downloads_last_update_timestamp_seconds",
			Help: "Unix time of the last successful update of the release counters.",
		},
	)
	reg.MustRegister(counts, updated)

	for _, c := range s {
		counts.WithLabelValues(r.Owner, r.Repo, c.Name).Set(float64(c.Count))
	}
	updated.Set(float64(p.now().Unix()))

	return push.New(p.url, p.job).
		Gatherer(reg).
		Grouping("tag", r.Tag).
		PushContext(ctx)
}
