// Package clock supplies the two time sources the controller needs: local
// calendar time for schedule decisions and monotonic uptime for timers.
package clock

import (
	"fmt"
	"time"
)

// MinValidYear is the earliest year a synchronised clock can report.
// Anything older means the RTC lost power or NTP never ran.
const MinValidYear = 2020

// Source provides calendar time and monotonic uptime.
type Source interface {
	// Now returns the local wall clock time.
	Now() time.Time
	// Elapsed returns the time since the source was created. It never goes
	// backwards when the wall clock is adjusted.
	Elapsed() time.Duration
}

// System is a Source backed by the host clock.
type System struct {
	start time.Time
	loc   *time.Location
}

// NewSystem creates a System that reports calendar time in loc.
// A nil loc means time.Local.
func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.Local
	}
	return &System{start: time.Now(), loc: loc}
}

// Now returns the wall clock time in the configured location.
func (s *System) Now() time.Time {
	return time.Now().In(s.loc)
}

// Elapsed uses the monotonic reading carried by time.Now.
func (s *System) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Check verifies that src reports a plausible calendar date.
func Check(src Source) error {
	now := src.Now()
	if now.Year() < MinValidYear {
		return fmt.Errorf("clock not set: reports %s", now.Format(time.RFC3339))
	}
	return nil
}
