package ledger

import (
	"time"

	"github.com/samber/lo"
)

// Row is one ledger entry: the date of a run and one counter per ledger asset.
type Row struct {
	Date   time.Time
	Counts []int64
}

// Total returns the sum of the row counters.
func (r Row) Total() int64 {
	return lo.Sum(r.Counts)
}

// Table is a loaded ledger.
type Table struct {
	Assets []string
	Rows   []Row
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Latest returns the last row in file order.
func (t Table) Latest() (Row, bool) {
	if len(t.Rows) == 0 {
		return Row{}, false
	}
	return t.Rows[len(t.Rows)-1], true
}

// LatestDate returns the most recent date of the table, whatever its position.
func (t Table) LatestDate() (time.Time, bool) {
	if len(t.Rows) == 0 {
		return time.Time{}, false
	}
	return lo.MaxBy(t.Rows, func(a, b Row) bool { return a.Date.After(b.Date) }).Date, true
}

// Window returns the rows dated less than days calendar days before the latest date of the table.
// Rows keep their file order. The table itself is not modified.
func (t Table) Window(days int) Table {
	latest, ok := t.LatestDate()
	if !ok {
		return Table{Assets: t.Assets}
	}

	cutoff := latest.AddDate(0, 0, -days)
	return Table{
		Assets: t.Assets,
		Rows:   lo.Filter(t.Rows, func(r Row, _ int) bool { return r.Date.After(cutoff) }),
	}
}

// Series returns the counters of the asset at column i, in row order.
func (t Table) Series(i int) []int64 {
	return lo.Map(t.Rows, func(r Row, _ int) int64 { return r.Counts[i] })
}
