// Package report summarises the trailing window of a ledger and renders it as a chart.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cartavis/download-stats/internal/constants"
	"github.com/cartavis/download-stats/internal/downloads"
	"github.com/cartavis/download-stats/internal/ledger"
)

// ErrNoData is returned when there is no ledger row to report on.
var ErrNoData = errors.New("no ledger rows to report")

// Period is the number of downloads over a trailing number of ledger rows.
type Period struct {
	Name      string  `yaml:"name" toml:"name"`
	Rows      int     `yaml:"rows" toml:"rows"`
	Downloads int64   `yaml:"downloads" toml:"downloads"`
	Average   float64 `yaml:"average,omitempty" toml:"average,omitempty"`
}

// periods are the reported periods, with their row counts.
var periods = []struct {
	name     string
	rows     int
	averaged bool
}{
	{"last day", 1, false},
	{"last 7 days", 7, true},
	{"last 14 days", 14, true},
	{"last 30 days", 30, true},
}

// Summary is the statistics of the trailing window of a ledger.
type Summary struct {
	Date    time.Time          `yaml:"date" toml:"date"`
	Latest  downloads.Snapshot `yaml:"latest" toml:"latest"`
	Total   int64              `yaml:"total" toml:"total"`
	Periods []Period           `yaml:"periods" toml:"periods"`
}

// Summarize computes the statistics of the trailing constants.WindowDays days of t, as of now.
//
// The downloads of a period of N rows is the sum over all assets of the latest counter minus
// the counter N rows before it. It is 0 when the window holds fewer than N+1 rows.
// Averages divide by N, not by the number of rows actually present.
func Summarize(t ledger.Table, now time.Time) (Summary, error) {
	return summarize(t.Window(constants.WindowDays), now)
}

func summarize(w ledger.Table, now time.Time) (Summary, error) {
	last, ok := w.Latest()
	if !ok {
		return Summary{}, ErrNoData
	}

	s := Summary{
		Date:   now,
		Latest: make(downloads.Snapshot, len(w.Assets)),
		Total:  last.Total(),
	}
	for i, a := range w.Assets {
		s.Latest[i] = downloads.AssetCount{Name: a, Count: last.Counts[i]}
	}

	for _, p := range periods {
		period := Period{Name: p.name, Rows: p.rows}
		if w.Len() > p.rows {
			period.Downloads = last.Total() - w.Rows[w.Len()-1-p.rows].Total()
		}
		if p.averaged {
			period.Average = float64(period.Downloads) / float64(p.rows)
		}
		s.Periods = append(s.Periods, period)
	}

	return s, nil
}

// Period returns the period called name.
func (s Summary) Period(name string) (Period, bool) {
	for _, p := range s.Periods {
		if p.Name == name {
			return p, true
		}
	}
	return Period{}, false
}

// Text returns the statistics box shown on charts.
func (s Summary) Text() string {
	var b strings.Builder
	fmt.Fprintln(&b, s.Date.Format(constants.DateLayout))
	fmt.Fprintln(&b, "Number of downloads over:")
	for _, p := range s.Periods {
		if p.Rows == 1 {
			fmt.Fprintf(&b, "%s: %d\n", p.Name, p.Downloads)
			continue
		}
		fmt.Fprintf(&b, "%s: %d (average %.1f)\n", p.Name, p.Downloads, p.Average)
	}
	return b.String()
}
