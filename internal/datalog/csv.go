package datalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// CSVStore appends events to a CSV file on disk.
type CSVStore struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenCSV opens or creates the log at path. A new or empty file gets the header.
func OpenCSV(path string) (*CSVStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open datalog: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat datalog: %w", err)
	}

	s := &CSVStore{path: path, f: f}
	if info.Size() == 0 {
		if err := s.write(Header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write datalog header: %w", err)
		}
	}
	return s, nil
}

// Record appends e and syncs the file.
func (s *CSVStore) Record(e logic.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return ErrClosed
	}
	if err := s.write(Row(e)); err != nil {
		return fmt.Errorf("record %s: %w", e.Tag, err)
	}
	return nil
}

func (s *CSVStore) write(record []string) error {
	cw := csv.NewWriter(s.f)
	if err := cw.Write(record); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return s.f.Sync()
}

// Dump copies the file as stored, header included.
func (s *CSVStore) Dump(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return ErrClosed
	}
	r, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open datalog for reading: %w", err)
	}
	defer r.Close()

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("dump datalog: %w", err)
	}
	return nil
}

// Close closes the file. Further calls return ErrClosed.
func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return ErrClosed
	}
	err := s.f.Close()
	s.f = nil
	return err
}
