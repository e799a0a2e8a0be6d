// Package datalog persists the tracker's audit events and replays them as CSV.
package datalog

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// Store is an append-only event log.
type Store interface {
	// Record appends one event durably.
	Record(e logic.Event) error
	// Dump writes the full history as CSV, header first.
	Dump(w io.Writer) error
	Close() error
}

// ErrClosed is returned by Record and Dump after Close.
var ErrClosed = errors.New("datalog: store closed")

// Header is the first CSV line of every dump.
var Header = []string{"Date", "Time", "Event", "East", "West", "Diff"}

const (
	dateLayout = "2006/01/02"
	timeLayout = "15:04:05"
)

// Row formats e as a CSV record.
func Row(e logic.Event) []string {
	return []string{
		e.Timestamp.Format(dateLayout),
		e.Timestamp.Format(timeLayout),
		string(e.Tag),
		strconv.Itoa(e.East),
		strconv.Itoa(e.West),
		strconv.Itoa(e.Difference),
	}
}

func writeRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
