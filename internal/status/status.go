// Package status provides a thread-safe status tracker for the solar-tracker daemon.
// It is read by the HTTP handlers, the console and MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TrackingIntervalMs int64
	HeartbeatMs        int64
	BalanceThreshold   int
	Broker             string
	HTTPPort           string
	Datalog            string // "csv:<path>" or "sqlite:<path>"
	Capabilities       logic.Capabilities
}

// Cycle is the outcome of one control loop cycle as seen by observers.
type Cycle struct {
	State    logic.State
	Phase    logic.NightPhase
	Reading  logic.Reading
	Hazard   bool
	Lighting bool
	// Command is the last actuator command actually sent.
	Command logic.Command
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Cycle
	Counts        map[logic.EventTag]int
	LastEvent     *logic.Event
	Session       string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time, boot session id and config.
func NewTracker(startTime time.Time, session string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Counts:    make(map[logic.EventTag]int),
			Session:   session,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the latest cycle. Called from the control loop every tick.
func (t *Tracker) Update(c Cycle) {
	t.mu.Lock()
	t.snap.Cycle = c
	t.mu.Unlock()
}

// RecordEvents counts events by tag and remembers the last one.
func (t *Tracker) RecordEvents(events []logic.Event) {
	if len(events) == 0 {
		return
	}
	t.mu.Lock()
	for _, e := range events {
		t.snap.Counts[e.Tag]++
	}
	last := events[len(events)-1]
	t.snap.LastEvent = &last
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Counts = make(map[logic.EventTag]int, len(t.snap.Counts))
	for k, v := range t.snap.Counts {
		s.Counts[k] = v
	}
	if t.snap.LastEvent != nil {
		e := *t.snap.LastEvent
		s.LastEvent = &e
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
