package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cartavis/download-stats/internal/constants"
	"github.com/cartavis/download-stats/internal/fileutils"
	"github.com/cartavis/download-stats/internal/ledger"
	"github.com/samber/lo"
	"github.com/ubuntu/decorate"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

type options struct {
	now     time.Time
	subject string
	width   vg.Length
	height  vg.Length
}

// Options represents an optional function to override Render default values.
type Options func(*options)

// WithNow sets the date printed in the statistics box.
func WithNow(now time.Time) Options {
	return func(o *options) {
		o.now = now
	}
}

// WithSubject sets the project description used in the chart title.
func WithSubject(subject string) Options {
	return func(o *options) {
		o.subject = subject
	}
}

// WithSize sets the size of the rendered image.
func WithSize(width, height vg.Length) Options {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// Render draws the trailing constants.WindowDays days of t as a PNG chart at path, replacing any existing file.
// It returns the statistics shown in the chart.
func Render(t ledger.Table, path, tag string, args ...Options) (s Summary, err error) {
	defer decorate.OnError(&err, "could not render chart %q", path)

	opts := options{
		now:     time.Now(),
		subject: constants.DefaultSubject,
		width:   10 * vg.Inch,
		height:  5 * vg.Inch,
	}
	for _, opt := range args {
		opt(&opts)
	}

	w := t.Window(constants.WindowDays)
	s, err = summarize(w, opts.now)
	if err != nil {
		return Summary{}, err
	}

	p, err := newPlot(w, s, tag, opts.subject)
	if err != nil {
		return Summary{}, err
	}

	wt, err := p.WriterTo(opts.width, opts.height, "png")
	if err != nil {
		return Summary{}, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return Summary{}, err
	}

	if err := fileutils.EnsureParentDir(path); err != nil {
		return Summary{}, err
	}
	if err := fileutils.AtomicWrite(path, buf.Bytes(), 0644); err != nil {
		return Summary{}, err
	}
	slog.Info("Chart rendered", "file", path, "tag", tag, "total", s.Total)

	return s, nil
}

func newPlot(w ledger.Table, s Summary, tag, subject string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %s downloads: %d", tag, subject, s.Total)
	p.Y.Label.Text = "Downloads"
	p.Y.Tick.Marker = groupedTicks{}
	p.X.Tick.Marker = dayTicks{}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Legend.Top = true
	p.Legend.Left = true

	for i, asset := range w.Assets {
		xys := make(plotter.XYs, w.Len())
		for j, r := range w.Rows {
			xys[j].X = float64(r.Date.Unix())
			xys[j].Y = float64(r.Counts[i])
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("invalid series for %q: %v", asset, err)
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = draw.CircleGlyph{}

		p.Add(line, points)
		p.Legend.Add(fmt.Sprintf("%s (%d)", asset, s.Latest[i].Count), line, points)
	}

	first := lo.MinBy(w.Rows, func(a, b ledger.Row) bool { return a.Date.Before(b.Date) }).Date
	last := lo.MaxBy(w.Rows, func(a, b ledger.Row) bool { return a.Date.After(b.Date) }).Date
	p.X.Min = float64(first.Unix())
	p.X.Max = float64(last.AddDate(0, 0, 1).Unix())

	box, err := plotter.NewLabels(plotter.XYLabels{
		XYs: []plotter.XY{{
			X: p.X.Min + 0.75*(p.X.Max-p.X.Min),
			Y: p.Y.Min + 0.25*(p.Y.Max-p.Y.Min),
		}},
		Labels: []string{s.Text()},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create statistics box: %v", err)
	}
	p.Add(box)

	return p, nil
}
