package report_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cartavis/download-stats/internal/ledger"
	"github.com/cartavis/download-stats/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

func day(d int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local).AddDate(0, 0, d)
}

// dailyTable returns a table of n consecutive daily rows of a single asset, whose counter is 10*i on row i.
func dailyTable(n int) ledger.Table {
	t := ledger.Table{Assets: []string{"a.dmg"}}
	for i := 1; i <= n; i++ {
		t.Rows = append(t.Rows, ledger.Row{Date: day(i), Counts: []int64{int64(10 * i)}})
	}
	return t
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		table ledger.Table

		wantTotal     int64
		wantDownloads map[string]int64
		wantAverages  map[string]float64
		wantErr       error
	}{
		"Single row has no deltas": {
			table:         dailyTable(1),
			wantTotal:     10,
			wantDownloads: map[string]int64{"last day": 0, "last 7 days": 0, "last 14 days": 0, "last 30 days": 0},
			wantAverages:  map[string]float64{"last 7 days": 0, "last 14 days": 0, "last 30 days": 0},
		},
		"Ten rows only fill short periods": {
			table:         dailyTable(10),
			wantTotal:     100,
			wantDownloads: map[string]int64{"last day": 10, "last 7 days": 70, "last 14 days": 0, "last 30 days": 0},
			wantAverages:  map[string]float64{"last 7 days": 10, "last 14 days": 0, "last 30 days": 0},
		},
		"Thirty rows fill all but the longest period": {
			table:         dailyTable(30),
			wantTotal:     300,
			wantDownloads: map[string]int64{"last day": 10, "last 7 days": 70, "last 14 days": 140, "last 30 days": 0},
			wantAverages:  map[string]float64{"last 7 days": 10, "last 14 days": 10, "last 30 days": 0},
		},
		"Rows older than the window are ignored": {
			table:         dailyTable(40),
			wantTotal:     400,
			wantDownloads: map[string]int64{"last day": 10, "last 7 days": 70, "last 14 days": 140, "last 30 days": 0},
			wantAverages:  map[string]float64{"last 7 days": 10, "last 14 days": 10, "last 30 days": 0},
		},
		"Totals sum all assets": {
			table: ledger.Table{
				Assets: []string{"a", "b"},
				Rows: []ledger.Row{
					{Date: day(1), Counts: []int64{1, 2}},
					{Date: day(2), Counts: []int64{4, 8}},
				},
			},
			wantTotal:     12,
			wantDownloads: map[string]int64{"last day": 9, "last 7 days": 0},
			wantAverages:  map[string]float64{"last 7 days": 0},
		},
		"Averages use a fixed divisor": {
			table: ledger.Table{
				Assets: []string{"a"},
				Rows: []ledger.Row{
					{Date: day(1), Counts: []int64{0}},
					{Date: day(2), Counts: []int64{5}},
					{Date: day(3), Counts: []int64{5}},
					{Date: day(4), Counts: []int64{5}},
					{Date: day(5), Counts: []int64{5}},
					{Date: day(6), Counts: []int64{5}},
					{Date: day(7), Counts: []int64{5}},
					{Date: day(8), Counts: []int64{19}},
				},
			},
			wantTotal:     19,
			wantDownloads: map[string]int64{"last day": 14, "last 7 days": 19},
			wantAverages:  map[string]float64{"last 7 days": 19.0 / 7},
		},

		"Error on empty table": {
			table:   ledger.Table{Assets: []string{"a"}},
			wantErr: report.ErrNoData,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := report.Summarize(tc.table, now)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr, "Summarize should return the expected error")
				return
			}
			require.NoError(t, err, "Summarize should not return an error")

			assert.Equal(t, tc.wantTotal, s.Total, "Total should be the sum of the latest counters")
			assert.Equal(t, now, s.Date, "Summary date should be the requested one")
			require.Len(t, s.Periods, 4, "Summary should hold every period")
			for n, want := range tc.wantDownloads {
				p, ok := s.Period(n)
				require.True(t, ok, "Summary should hold period %q", n)
				assert.Equal(t, want, p.Downloads, "Unexpected downloads over %q", n)
			}
			for n, want := range tc.wantAverages {
				p, _ := s.Period(n)
				assert.InDelta(t, want, p.Average, 1e-9, "Unexpected average over %q", n)
			}
		})
	}
}

func TestSummarizeDoesNotModifyTable(t *testing.T) {
	t.Parallel()

	table := dailyTable(40)
	_, err := report.Summarize(table, now)
	require.NoError(t, err, "Summarize should not return an error")
	require.Equal(t, dailyTable(40), table, "Summarize should not modify its input")
}

func TestSummaryLatest(t *testing.T) {
	t.Parallel()

	table := ledger.Table{
		Assets: []string{"a", "b"},
		Rows: []ledger.Row{
			{Date: day(1), Counts: []int64{1, 2}},
			{Date: day(2), Counts: []int64{3, 4}},
		},
	}

	s, err := report.Summarize(table, now)
	require.NoError(t, err, "Summarize should not return an error")

	c, ok := s.Latest.Count("b")
	require.True(t, ok, "Latest should hold every asset")
	assert.Equal(t, int64(4), c, "Latest should hold the last row counters")
}

func TestText(t *testing.T) {
	t.Parallel()

	s, err := report.Summarize(dailyTable(10), now)
	require.NoError(t, err, "Summarize should not return an error")

	want := `2024-03-10
Number of downloads over:
last day: 10
last 7 days: 70 (average 10.0)
last 14 days: 0 (average 0.0)
last 30 days: 0 (average 0.0)
`
	assert.Equal(t, want, s.Text(), "Text should render the statistics box")
}

func TestRender(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		table    ledger.Table
		opts     []report.Options
		readOnly bool

		wantErr bool
	}{
		"Single row":              {table: dailyTable(1)},
		"Full window":             {table: dailyTable(40)},
		"Equal counters":          {table: ledger.Table{Assets: []string{"a"}, Rows: []ledger.Row{{Date: day(1), Counts: []int64{5}}, {Date: day(2), Counts: []int64{5}}}}},
		"Several assets":          {table: ledger.Table{Assets: []string{"a", "b", "c"}, Rows: []ledger.Row{{Date: day(1), Counts: []int64{1, 2000, 3}}, {Date: day(2), Counts: []int64{4, 5000, 6}}}}},
		"Custom subject and size": {table: dailyTable(3), opts: []report.Options{report.WithSubject("other project"), report.WithSize(4*vg.Inch, 2*vg.Inch)}},

		"Error on empty table":         {table: ledger.Table{Assets: []string{"a"}}, wantErr: true},
		"Error on unwritable location": {table: dailyTable(3), readOnly: true, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, "charts", "plot.png")
			if tc.readOnly {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "charts"), nil, 0600), "Setup: could not block chart directory")
			}

			opts := append([]report.Options{report.WithNow(now)}, tc.opts...)
			s, err := report.Render(tc.table, path, "v4.0.0", opts...)
			if tc.wantErr {
				require.Error(t, err, "Render should return an error")
				_, statErr := os.Stat(path)
				require.Error(t, statErr, "Render should not create a chart on error")
				return
			}
			require.NoError(t, err, "Render should not return an error")

			want, err := report.Summarize(tc.table, now)
			require.NoError(t, err, "Setup: Summarize should not return an error")
			assert.Equal(t, want, s, "Render should return the summary shown on the chart")

			data, err := os.ReadFile(path)
			require.NoError(t, err, "Render should write the chart")
			require.Greater(t, len(data), 8, "Chart should not be empty")
			assert.Equal(t, "\x89PNG\r\n\x1a\n", string(data[:8]), "Chart should be a PNG image")
		})
	}
}

func TestRenderReplacesExistingChart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plot.png")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0600), "Setup: could not write previous chart")

	_, err := report.Render(dailyTable(5), path, "v4.0.0", report.WithNow(now))
	require.NoError(t, err, "Render should not return an error")

	data, err := os.ReadFile(path)
	require.NoError(t, err, "Chart should still exist")
	assert.NotEqual(t, "old", string(data), "Render should replace the previous chart")
}

func TestDayTicks(t *testing.T) {
	t.Parallel()

	min := float64(day(1).Unix())
	max := float64(day(4).Unix())
	ticks := report.DayTicks(min, max)

	require.Len(t, ticks, 4, "One tick per day should be placed, bounds included")
	for i, tk := range ticks {
		assert.Equal(t, day(i+1).Format("2006-01-02"), tk.Label, "Tick %d should be labelled with its date", i)
	}

	ticks = report.DayTicks(min+3600, max)
	require.Len(t, ticks, 3, "Ticks should start at the first midnight after min")
}

func TestGroupedTicks(t *testing.T) {
	t.Parallel()

	ticks := report.GroupedTicks(0, 50000)
	require.NotEmpty(t, ticks, "Ticks should be placed")

	var labelled int
	for _, tk := range ticks {
		if tk.Label == "" {
			continue
		}
		labelled++
		v, err := strconv.ParseInt(strings.ReplaceAll(tk.Label, ",", ""), 10, 64)
		require.NoError(t, err, "Label %q should be an integer", tk.Label)
		assert.Equal(t, int64(tk.Value), v, "Label should print the tick value")
		if v >= 1000 {
			assert.Contains(t, tk.Label, ",", "Label %q should group thousands", tk.Label)
		}
	}
	require.NotZero(t, labelled, "Some ticks should be labelled")
}
