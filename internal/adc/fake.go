package adc

import (
	"errors"
	"sync"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// FakeReader is a test double that returns scripted east/west pairs.
type FakeReader struct {
	mu sync.Mutex

	// Samples contains scripted readings. Each east+west pair of reads
	// consumes one sample; the last sample repeats once exhausted.
	Samples []logic.Reading

	index int
	reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, is returned for every read of FailChannel.
	ReadError   error
	FailChannel int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...logic.Reading) *FakeReader {
	return &FakeReader{Samples: samples, FailChannel: -1}
}

// Read returns the east or west value of the current sample.
func (f *FakeReader) Read(channel int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	f.reads++
	if f.reads%2 == 0 && f.index < len(f.Samples)-1 {
		f.index++
	}

	if f.ReadError != nil && channel == f.FailChannel {
		return 0, f.ReadError
	}
	if channel == ChannelWest {
		return sample.West, nil
	}
	return sample.East, nil
}

// Push appends samples to the script.
func (f *FakeReader) Push(samples ...logic.Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Samples = append(f.Samples, samples...)
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
