package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/solar-tracker/internal/datalog"
	"github.com/sweeney/solar-tracker/internal/logic"
	"github.com/sweeney/solar-tracker/internal/metrics"
	"github.com/sweeney/solar-tracker/internal/status"
)

type fixture struct {
	ts      *httptest.Server
	tracker *status.Tracker
	store   *datalog.FakeStore
	metrics *metrics.Collector
}

func newTestServer(t *testing.T) fixture {
	t.Helper()
	start := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	cfg := status.Config{
		TrackingIntervalMs: 600000,
		HeartbeatMs:        900000,
		BalanceThreshold:   50,
		Broker:             "tcp://192.168.1.200:1883",
		HTTPPort:           ":80",
	}
	f := fixture{
		tracker: status.NewTracker(start, "session-1", cfg),
		store:   datalog.NewFakeStore(),
		metrics: metrics.New(),
	}
	srv := New(":0", f.tracker, f.store, f.metrics.Handler())
	f.ts = httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(f.ts.Close)
	return f
}

func getStatus(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	f := newTestServer(t)
	f.tracker.Update(status.Cycle{State: logic.StateTracking, Reading: logic.Reading{East: 700, West: 600}, Command: logic.CommandExtend})
	f.tracker.RecordEvents([]logic.Event{{Tag: logic.EventTracking}})
	f.tracker.SetMQTTConnected(true)

	sj := getStatus(t, f.ts.URL+"/index.json")
	if sj.Status.State != "TRACKING" {
		t.Errorf("State: got %q, want TRACKING", sj.Status.State)
	}
	if sj.Status.Sensors.Diff != 100 {
		t.Errorf("Sensors.Diff: got %d, want 100", sj.Status.Sensors.Diff)
	}
	if sj.Status.LastCommand != "EXTEND" {
		t.Errorf("LastCommand: got %q", sj.Status.LastCommand)
	}
	if !sj.Status.MQTT.Connected || sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT: got %+v", sj.Status.MQTT)
	}
	if sj.Status.Counts["TRACKING"] != 1 {
		t.Errorf("Counts: got %v", sj.Status.Counts)
	}
	if sj.Status.Session != "session-1" {
		t.Errorf("Session: got %q", sj.Status.Session)
	}
}

func TestRootServesJSON(t *testing.T) {
	f := newTestServer(t)
	sj := getStatus(t, f.ts.URL+"/")
	if sj.Status.State != "UNKNOWN" {
		t.Errorf("State before first cycle: got %q, want UNKNOWN", sj.Status.State)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	f := newTestServer(t)
	f.tracker.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"})

	sj := getStatus(t, f.ts.URL+"/index.json")
	if sj.Status.Network == nil || sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network: got %+v", sj.Status.Network)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestDatalogDownload(t *testing.T) {
	f := newTestServer(t)
	f.store.Record(logic.Event{
		Timestamp: time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC),
		Tag:       logic.EventNightResetInit,
		State:     logic.StateNightReset,
	})

	resp, err := http.Get(f.ts.URL + "/datalog.csv")
	if err != nil {
		t.Fatalf("GET /datalog.csv: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type: got %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	want := "Date,Time,Event,East,West,Diff\n2024/06/01,18:00:00,NIGHT_RESET_INIT,0,0,0\n"
	if string(body) != want {
		t.Errorf("body:\ngot:  %q\nwant: %q", body, want)
	}
}

func TestDatalogDownloadClosedStore(t *testing.T) {
	f := newTestServer(t)
	f.store.Close()

	resp, err := http.Get(f.ts.URL + "/datalog.csv")
	if err != nil {
		t.Fatalf("GET /datalog.csv: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d", resp.StatusCode)
	}
}

func TestDatalogUnroutedWithoutStore(t *testing.T) {
	tr := status.NewTracker(time.Now(), "", status.Config{})
	ts := httptest.NewServer(New(":0", tr, nil, nil).httpServer.Handler)
	defer ts.Close()

	for _, path := range []string{"/datalog.csv", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != 404 {
			t.Errorf("%s: got %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newTestServer(t)
	f.metrics.ObserveCycle(logic.StateDormancy, logic.Reading{East: 40, West: 42}, false, false)

	resp, err := http.Get(f.ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `solar_tracker_state{state="DORMANCY"} 1`) {
		t.Errorf("expected dormancy gauge in exposition:\n%s", body)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	f := newTestServer(t)

	f.tracker.Update(status.Cycle{State: logic.StateIdle})
	if sj := getStatus(t, f.ts.URL+"/index.json"); sj.Status.State != "IDLE" {
		t.Errorf("State: got %q, want IDLE", sj.Status.State)
	}

	f.tracker.Update(status.Cycle{State: logic.StateHazardSafety, Hazard: true})
	sj := getStatus(t, f.ts.URL+"/index.json")
	if sj.Status.State != "HAZARD_SAFETY" || !sj.Status.Hazard {
		t.Errorf("expected hazard reflected, got state=%q hazard=%v", sj.Status.State, sj.Status.Hazard)
	}
}
