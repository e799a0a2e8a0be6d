package clock

import (
	"sync"
	"time"
)

// Fake is a manually driven Source for tests.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	elapsed time.Duration
}

// NewFake creates a Fake reading now with zero uptime.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the current fake calendar time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Elapsed returns the current fake uptime.
func (f *Fake) Elapsed() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elapsed
}

// Advance moves both calendar time and uptime forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.elapsed += d
}

// Set jumps the calendar time without touching uptime, like an NTP step.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}
