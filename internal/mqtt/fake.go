package mqtt

import (
	"sync"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// FakePublisher records what the tracker would have sent to the broker.
// Payloads are rendered with the real formatters so tests can assert on JSON.
type FakePublisher struct {
	mu sync.Mutex

	Events   []logic.Event
	Payloads [][]byte

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError, if set, fails every Publish and nothing is recorded.
	PublishError error
}

// NewFakePublisher creates an empty FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records event and its payload.
func (f *FakePublisher) Publish(event logic.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records event and its payload.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close is a no-op.
func (f *FakePublisher) Close() error { return nil }

// IsConnected always reports false: the fake has no broker.
func (f *FakePublisher) IsConnected() bool { return false }

// EventTags returns the tags of the published tracker events in order.
func (f *FakePublisher) EventTags() []logic.EventTag {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags := make([]logic.EventTag, 0, len(f.Events))
	for _, e := range f.Events {
		tags = append(tags, e.Tag)
	}
	return tags
}

// SystemEventNames returns the names of the published system events in order.
func (f *FakePublisher) SystemEventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.SystemEvents))
	for _, e := range f.SystemEvents {
		names = append(names, e.Event)
	}
	return names
}
