package report

import "gonum.org/v1/plot"

// DayTicks returns the ticks placed on the date axis between min and max.
func DayTicks(min, max float64) []plot.Tick {
	return dayTicks{}.Ticks(min, max)
}

// GroupedTicks returns the ticks placed on the downloads axis between min and max.
func GroupedTicks(min, max float64) []plot.Tick {
	return groupedTicks{}.Ticks(min, max)
}
