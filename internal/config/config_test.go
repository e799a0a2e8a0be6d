package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sweeney/solar-tracker/internal/logic"
)

func TestLoadEmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(logic.DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeOverridesOnlyGivenKeys(t *testing.T) {
	in := `
tracking_interval: 5m
balance_threshold: 30
season_start: 4
lighting_duration: 2h30m
`
	cfg, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := logic.DefaultConfig()
	want.TrackingInterval = 5 * time.Minute
	want.BalanceThreshold = 30
	want.SeasonStart = time.April
	want.LightingDuration = 150 * time.Minute
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEmptyDocument(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != logic.DefaultConfig() {
		t.Error("empty document should yield the defaults")
	}
}

func TestDecodeRejectsUnknownKey(t *testing.T) {
	if _, err := Decode(strings.NewReader("treshold: 20\n")); err == nil {
		t.Error("expected error for a misspelt key")
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	if _, err := Decode(strings.NewReader("sensor_min_valid: 1020\n")); err == nil {
		t.Error("expected validation error for an empty valid range")
	}
	if _, err := Decode(strings.NewReader("track_pulse: fast\n")); err == nil {
		t.Error("expected parse error for a bad duration")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	if err := os.WriteFile(path, []byte("night_hour: 21\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NightHour != 21 {
		t.Errorf("night hour: got %d", cfg.NightHour)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestEncodeDecodeDefaults(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, logic.DefaultConfig()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), "tracking_interval: 10m0s") {
		t.Errorf("expected duration string in output:\n%s", buf.String())
	}

	cfg, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg != logic.DefaultConfig() {
		t.Error("encoded defaults should decode to the defaults")
	}
}
