package report

import (
	"time"

	"github.com/cartavis/download-stats/internal/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/plot"
)

// dayTicks places one labelled tick at every local midnight between min and max, which are Unix times.
type dayTicks struct{}

// Ticks implements plot.Ticker.
func (dayTicks) Ticks(min, max float64) []plot.Tick {
	start := time.Unix(int64(min), 0)
	d := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local)
	if float64(d.Unix()) < min {
		d = d.AddDate(0, 0, 1)
	}

	var ticks []plot.Tick
	for ; float64(d.Unix()) <= max; d = d.AddDate(0, 0, 1) {
		ticks = append(ticks, plot.Tick{Value: float64(d.Unix()), Label: d.Format(constants.DateLayout)})
	}
	return ticks
}

// groupedTicks uses the default tick placement, with labels printed as thousands-grouped integers.
type groupedTicks struct{}

var printer = message.NewPrinter(language.English)

// Ticks implements plot.Ticker.
func (groupedTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i, t := range ticks {
		if t.Label == "" {
			continue
		}
		ticks[i].Label = printer.Sprintf("%d", int64(t.Value))
	}
	return ticks
}
