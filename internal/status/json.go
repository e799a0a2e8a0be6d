package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	State         string         `json:"state"`
	Phase         string         `json:"phase,omitempty"`
	Sensors       SensorsJSON    `json:"sensors"`
	Hazard        bool           `json:"hazard"`
	Lighting      bool           `json:"lighting"`
	LastCommand   string         `json:"last_command"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	Session       string         `json:"session"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        map[string]int `json:"event_counts"`
	LastEvent     *EventJSON     `json:"last_event,omitempty"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// SensorsJSON is the last light sensor pair.
type SensorsJSON struct {
	East int `json:"east"`
	West int `json:"west"`
	Diff int `json:"diff"`
}

// EventJSON is the JSON representation of an audit event.
type EventJSON struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	State     string `json:"state"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TrackingIntervalMs int64  `json:"tracking_interval_ms"`
	HeartbeatMs        int64  `json:"heartbeat_ms"`
	BalanceThreshold   int    `json:"balance_threshold"`
	Broker             string `json:"broker"`
	HTTPPort           string `json:"http_port"`
	Datalog            string `json:"datalog"`
	Lighting           bool   `json:"lighting_fitted"`
	Hazard             bool   `json:"hazard_fitted"`
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	counts := make(map[string]int, len(snap.Counts))
	for tag, n := range snap.Counts {
		counts[string(tag)] = n
	}

	inner := StatusInner{
		State:         orUnknown(string(snap.State)),
		Phase:         string(snap.Phase),
		Sensors:       SensorsJSON{East: snap.Reading.East, West: snap.Reading.West, Diff: snap.Reading.Difference()},
		Hazard:        snap.Hazard,
		Lighting:      snap.Lighting,
		LastCommand:   orUnknown(string(snap.Command)),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Session:       snap.Session,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        counts,
		Config: ConfigJSON{
			TrackingIntervalMs: snap.Config.TrackingIntervalMs,
			HeartbeatMs:        snap.Config.HeartbeatMs,
			BalanceThreshold:   snap.Config.BalanceThreshold,
			Broker:             snap.Config.Broker,
			HTTPPort:           snap.Config.HTTPPort,
			Datalog:            snap.Config.Datalog,
			Lighting:           snap.Config.Capabilities.Lighting,
			Hazard:             snap.Config.Capabilities.Hazard,
		},
	}

	if e := snap.LastEvent; e != nil {
		inner.LastEvent = &EventJSON{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(e.Tag),
			State:     string(e.State),
		}
	}
	if n := snap.Network; n != nil {
		inner.Network = &NetworkJSON{
			Type:       n.Type,
			IP:         n.IP,
			Status:     n.Status,
			Gateway:    n.Gateway,
			WifiStatus: n.WifiStatus,
			SSID:       n.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatLine returns the one-line console status.
func FormatLine(snap Snapshot) string {
	line := fmt.Sprintf("state=%s", orUnknown(string(snap.State)))
	if snap.Phase != logic.PhaseNone {
		line += fmt.Sprintf(" phase=%s", snap.Phase)
	}
	return line + fmt.Sprintf(" east=%d west=%d diff=%d hazard=%t lighting=%t last_command=%s uptime=%s",
		snap.Reading.East, snap.Reading.West, snap.Reading.Difference(),
		snap.Hazard, snap.Lighting, orUnknown(string(snap.Command)),
		snap.Uptime().Truncate(time.Second))
}
