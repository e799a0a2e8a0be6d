package datalog

import (
	"io"
	"sync"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// FakeStore is an in-memory Store for testing.
type FakeStore struct {
	mu     sync.Mutex
	events []logic.Event
	closed bool

	// RecordError, if set, is returned by Record and nothing is stored.
	RecordError error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Record stores e in memory.
func (f *FakeStore) Record(e logic.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if f.RecordError != nil {
		return f.RecordError
	}
	f.events = append(f.events, e)
	return nil
}

// Dump writes the stored events as CSV.
func (f *FakeStore) Dump(w io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	rows := make([][]string, 0, len(f.events))
	for _, e := range f.events {
		rows = append(rows, Row(e))
	}
	return writeRows(w, rows)
}

// Close marks the store closed.
func (f *FakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Events returns a copy of all recorded events.
func (f *FakeStore) Events() []logic.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Event(nil), f.events...)
}

// Tags returns the tags of all recorded events in order.
func (f *FakeStore) Tags() []logic.EventTag {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags := make([]logic.EventTag, 0, len(f.events))
	for _, e := range f.events {
		tags = append(tags, e.Tag)
	}
	return tags
}
