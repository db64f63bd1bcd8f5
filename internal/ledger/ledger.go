// Package ledger implements the append-only CSV history of download counters of a release.
//
// A ledger starts with a "Date,<asset>,..." header and holds one row per run,
// made of the local date of the run followed by one counter per asset.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/cartavis/download-stats/internal/constants"
	"github.com/cartavis/download-stats/internal/downloads"
	"github.com/cartavis/download-stats/internal/fileutils"
	"github.com/gofrs/flock"
	"github.com/ubuntu/decorate"
)

// DateColumn is the name of the first ledger column.
const DateColumn = "Date"

var (
	// ErrEmptyLedger is returned when loading a ledger without a header.
	ErrEmptyLedger = errors.New("ledger has no header")
	// ErrInvalidHeader is returned when the first ledger column is not the date column.
	ErrInvalidHeader = errors.New("invalid ledger header")
)

// Update appends a row for s at date to the ledger at path, then loads the whole ledger.
func Update(path string, assets []string, s downloads.Snapshot, date time.Time) (Table, error) {
	if err := Append(path, assets, s, date); err != nil {
		return Table{}, err
	}
	return Load(path)
}

// Append adds one row to the ledger at path: the local date followed by the counter of
// every asset in assets order. Assets missing from s are written as 0.
//
// The ledger and its parent directories are created with a header if they do not exist.
// Appends are serialised across processes through a lock file next to the ledger.
func Append(path string, assets []string, s downloads.Snapshot, date time.Time) (err error) {
	defer decorate.OnError(&err, "could not append to ledger %q", path)

	if err := fileutils.EnsureParentDir(path); err != nil {
		return err
	}

	lock := flock.New(path + constants.LockExt)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("could not lock ledger: %v", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to unlock ledger", "file", path, "error", err)
		}
	}()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		slog.Info("Creating ledger", "file", path)
		if err := w.Write(append([]string{DateColumn}, assets...)); err != nil {
			return err
		}
	}

	row := make([]string, 0, len(assets)+1)
	row = append(row, date.Format(constants.DateLayout))
	for _, a := range assets {
		c, _ := s.Count(a)
		row = append(row, strconv.FormatInt(c, 10))
	}
	if err := w.Write(row); err != nil {
		return err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	slog.Debug("Appended ledger row", "file", path, "row", row)

	return nil
}

// Load reads the whole ledger at path. Rows are kept in file order.
func Load(path string) (t Table, err error) {
	defer decorate.OnError(&err, "could not load ledger %q", path)

	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	return parse(f)
}

func parse(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, ErrEmptyLedger
	}
	if err != nil {
		return Table{}, err
	}
	if header[0] != DateColumn {
		return Table{}, fmt.Errorf("%w: first column is %q, expected %q", ErrInvalidHeader, header[0], DateColumn)
	}

	t := Table{Assets: header[1:]}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, err
		}

		line, _ := cr.FieldPos(0)
		date, err := time.ParseInLocation(constants.DateLayout, rec[0], time.Local)
		if err != nil {
			return Table{}, fmt.Errorf("line %d: invalid date: %v", line, err)
		}

		counts := make([]int64, len(rec)-1)
		for i, v := range rec[1:] {
			if counts[i], err = strconv.ParseInt(v, 10, 64); err != nil {
				return Table{}, fmt.Errorf("line %d: invalid count for %q: %v", line, t.Assets[i], err)
			}
		}
		t.Rows = append(t.Rows, Row{Date: date, Counts: counts})
	}

	return t, nil
}
