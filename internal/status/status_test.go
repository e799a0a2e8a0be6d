package status

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/solar-tracker/internal/logic"
)

var start = time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

func fixedTracker(cfg Config, now time.Time) *Tracker {
	tr := NewTracker(start, "3f1c2b8e-6a7d-4c3e-9b1a-2f4e5d6c7b8a", cfg)
	tr.now = func() time.Time { return now }
	return tr
}

func TestNewTracker(t *testing.T) {
	cfg := Config{TrackingIntervalMs: 600000, Broker: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(start, "session-1", cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Session != "session-1" {
		t.Errorf("Session: got %q", snap.Session)
	}
	if snap.Config.TrackingIntervalMs != 600000 {
		t.Errorf("Config.TrackingIntervalMs: got %d", snap.Config.TrackingIntervalMs)
	}
	if snap.State != "" || snap.MQTTConnected || snap.LastEvent != nil {
		t.Errorf("expected empty initial state, got %+v", snap)
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(start, "", Config{})
	tr.Update(Cycle{
		State:    logic.StateNightReset,
		Phase:    logic.PhaseLit,
		Reading:  logic.Reading{East: 12, West: 30},
		Lighting: true,
		Command:  logic.CommandStop,
	})

	snap := tr.Snapshot()
	if snap.State != logic.StateNightReset || snap.Phase != logic.PhaseLit {
		t.Errorf("state: got %s/%s", snap.State, snap.Phase)
	}
	if snap.Reading.Difference() != -18 {
		t.Errorf("reading: got %+v", snap.Reading)
	}
	if !snap.Lighting || snap.Command != logic.CommandStop {
		t.Errorf("outputs: lighting=%v command=%s", snap.Lighting, snap.Command)
	}
}

func TestRecordEvents(t *testing.T) {
	tr := NewTracker(start, "", Config{})
	tr.RecordEvents(nil)
	tr.RecordEvents([]logic.Event{
		{Tag: logic.EventTracking},
		{Tag: logic.EventTracking},
		{Tag: logic.EventSensorFault, State: logic.StateTracking},
	})

	snap := tr.Snapshot()
	if snap.Counts[logic.EventTracking] != 2 || snap.Counts[logic.EventSensorFault] != 1 {
		t.Errorf("unexpected counts: %v", snap.Counts)
	}
	if snap.LastEvent == nil || snap.LastEvent.Tag != logic.EventSensorFault {
		t.Errorf("unexpected last event: %+v", snap.LastEvent)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tr := NewTracker(start, "", Config{})
	tr.RecordEvents([]logic.Event{{Tag: logic.EventWakeUp}})

	snap := tr.Snapshot()
	snap.Counts[logic.EventWakeUp] = 99
	snap.LastEvent.Tag = logic.EventError

	again := tr.Snapshot()
	if again.Counts[logic.EventWakeUp] != 1 {
		t.Errorf("counts leaked through snapshot: %d", again.Counts[logic.EventWakeUp])
	}
	if again.LastEvent.Tag != logic.EventWakeUp {
		t.Errorf("last event leaked through snapshot: %s", again.LastEvent.Tag)
	}
}

func TestSetMQTTConnectedAndNetwork(t *testing.T) {
	tr := NewTracker(start, "", Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})
	if n := tr.Snapshot().Network; n == nil || n.IP != "192.168.1.42" {
		t.Errorf("unexpected network: %+v", n)
	}
}

func TestUptime(t *testing.T) {
	tr := fixedTracker(Config{}, start.Add(90*time.Minute))
	if got := tr.Snapshot().Uptime(); got != 90*time.Minute {
		t.Errorf("uptime: got %v", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(start, "", Config{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			tr.Update(Cycle{State: logic.StateIdle, Reading: logic.Reading{East: i, West: i}})
		}(i)
		go func() {
			defer wg.Done()
			tr.RecordEvents([]logic.Event{{Tag: logic.EventTracking}})
		}()
		go func() {
			defer wg.Done()
			FormatJSON(tr.Snapshot())
		}()
	}
	wg.Wait()

	if n := tr.Snapshot().Counts[logic.EventTracking]; n != 50 {
		t.Errorf("expected 50 tracking events, got %d", n)
	}
}

func TestFormatJSON(t *testing.T) {
	cfg := Config{
		TrackingIntervalMs: 600000,
		HeartbeatMs:        900000,
		BalanceThreshold:   50,
		Broker:             "tcp://localhost:1883",
		HTTPPort:           ":80",
		Datalog:            "csv:/var/lib/solar-tracker/datalog.csv",
		Capabilities:       logic.Capabilities{Lighting: true},
	}
	tr := fixedTracker(cfg, start.Add(time.Hour))
	tr.Update(Cycle{State: logic.StateIdle, Reading: logic.Reading{East: 620, West: 600}, Command: logic.CommandStop})
	tr.RecordEvents([]logic.Event{{Timestamp: start, Tag: logic.EventSystemStart, State: logic.StateIdle}})

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.State != "IDLE" || s.Phase != "" {
		t.Errorf("state: got %q phase %q", s.State, s.Phase)
	}
	if s.Sensors != (SensorsJSON{East: 620, West: 600, Diff: 20}) {
		t.Errorf("sensors: got %+v", s.Sensors)
	}
	if s.UptimeSeconds != 3600 {
		t.Errorf("uptime: got %d", s.UptimeSeconds)
	}
	if s.Counts["SYSTEM_START"] != 1 {
		t.Errorf("counts: got %v", s.Counts)
	}
	if s.LastEvent == nil || s.LastEvent.Event != "SYSTEM_START" {
		t.Errorf("last event: got %+v", s.LastEvent)
	}
	if !s.Config.Lighting || s.Config.Hazard {
		t.Errorf("capabilities: got %+v", s.Config)
	}
	if s.Event != "" || s.Reason != "" {
		t.Error("web status must not carry event/reason")
	}
	if s.Network != nil {
		t.Error("network should be omitted when unknown")
	}
}

func TestFormatJSONUnknownState(t *testing.T) {
	var parsed StatusJSON
	json.Unmarshal(FormatJSON(NewTracker(start, "", Config{}).Snapshot()), &parsed)
	if parsed.Status.State != "UNKNOWN" || parsed.Status.LastCommand != "UNKNOWN" {
		t.Errorf("expected UNKNOWN placeholders, got %+v", parsed.Status)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := fixedTracker(Config{}, start.Add(time.Minute))
	tr.Update(Cycle{State: logic.StateDormancy})

	data := FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM")
	if strings.Contains(string(data), "\n") {
		t.Error("MQTT payload should be compact")
	}

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: got %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
	if parsed.Status.State != "DORMANCY" {
		t.Errorf("state: got %q", parsed.Status.State)
	}
}

func TestFormatLine(t *testing.T) {
	tr := fixedTracker(Config{}, start.Add(2*time.Hour+5*time.Second))
	tr.Update(Cycle{
		State:    logic.StateNightReset,
		Phase:    logic.PhaseRetracting,
		Reading:  logic.Reading{East: 4, West: 6},
		Lighting: true,
		Command:  logic.CommandRetract,
	})

	want := "state=NIGHT_RESET phase=RETRACTING east=4 west=6 diff=-2 hazard=false lighting=true last_command=RETRACT uptime=2h0m5s"
	if got := FormatLine(tr.Snapshot()); got != want {
		t.Errorf("unexpected line:\ngot:  %s\nwant: %s", got, want)
	}
}
