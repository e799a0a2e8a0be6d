// Package config loads tracker thresholds from a YAML file. Keys left out of
// the file keep their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// file mirrors logic.Config with YAML keys. Durations are Go duration
// strings ("10m", "500ms"); months are 1-12.
type file struct {
	TrackingInterval          time.Duration `yaml:"tracking_interval"`
	BalanceThreshold          int           `yaml:"balance_threshold"`
	SensorMinValid            int           `yaml:"sensor_min_valid"`
	SensorMaxValid            int           `yaml:"sensor_max_valid"`
	TrackPulse                time.Duration `yaml:"track_pulse"`
	DeadReckoningPulse        time.Duration `yaml:"dead_reckoning_pulse"`
	DarkThreshold             int           `yaml:"dark_threshold"`
	WakeThreshold             int           `yaml:"wake_threshold"`
	DormancyRecoveryThreshold int           `yaml:"dormancy_recovery_threshold"`
	EveningHour               int           `yaml:"evening_hour"`
	NightHour                 int           `yaml:"night_hour"`
	DawnHour                  int           `yaml:"dawn_hour"`
	DawnMinute                int           `yaml:"dawn_minute"`
	SeasonStart               int           `yaml:"season_start"`
	SeasonEnd                 int           `yaml:"season_end"`
	RetractDuration           time.Duration `yaml:"retract_duration"`
	LightingDuration          time.Duration `yaml:"lighting_duration"`
	LightingCutoffHour        int           `yaml:"lighting_cutoff_hour"`
	StowDuration              time.Duration `yaml:"stow_duration"`
}

func fromConfig(c logic.Config) file {
	return file{
		TrackingInterval:          c.TrackingInterval,
		BalanceThreshold:          c.BalanceThreshold,
		SensorMinValid:            c.SensorMinValid,
		SensorMaxValid:            c.SensorMaxValid,
		TrackPulse:                c.TrackPulse,
		DeadReckoningPulse:        c.DeadReckoningPulse,
		DarkThreshold:             c.DarkThreshold,
		WakeThreshold:             c.WakeThreshold,
		DormancyRecoveryThreshold: c.DormancyRecoveryThreshold,
		EveningHour:               c.EveningHour,
		NightHour:                 c.NightHour,
		DawnHour:                  c.DawnHour,
		DawnMinute:                c.DawnMinute,
		SeasonStart:               int(c.SeasonStart),
		SeasonEnd:                 int(c.SeasonEnd),
		RetractDuration:           c.RetractDuration,
		LightingDuration:          c.LightingDuration,
		LightingCutoffHour:        c.LightingCutoffHour,
		StowDuration:              c.StowDuration,
	}
}

func (f file) config() logic.Config {
	return logic.Config{
		TrackingInterval:          f.TrackingInterval,
		BalanceThreshold:          f.BalanceThreshold,
		SensorMinValid:            f.SensorMinValid,
		SensorMaxValid:            f.SensorMaxValid,
		TrackPulse:                f.TrackPulse,
		DeadReckoningPulse:        f.DeadReckoningPulse,
		DarkThreshold:             f.DarkThreshold,
		WakeThreshold:             f.WakeThreshold,
		DormancyRecoveryThreshold: f.DormancyRecoveryThreshold,
		EveningHour:               f.EveningHour,
		NightHour:                 f.NightHour,
		DawnHour:                  f.DawnHour,
		DawnMinute:                f.DawnMinute,
		SeasonStart:               time.Month(f.SeasonStart),
		SeasonEnd:                 time.Month(f.SeasonEnd),
		RetractDuration:           f.RetractDuration,
		LightingDuration:          f.LightingDuration,
		LightingCutoffHour:        f.LightingCutoffHour,
		StowDuration:              f.StowDuration,
	}
}

// Decode reads YAML from r over the defaults and validates the result.
// Unknown keys are rejected.
func Decode(r io.Reader) (logic.Config, error) {
	f := fromConfig(logic.DefaultConfig())

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return logic.Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := f.config()
	if err := cfg.Validate(); err != nil {
		return logic.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads the thresholds file at path. An empty path returns the defaults.
func Load(path string) (logic.Config, error) {
	if path == "" {
		return logic.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return logic.Config{}, fmt.Errorf("read config: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Encode writes cfg as YAML, for printing the effective configuration.
func Encode(w io.Writer, cfg logic.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fromConfig(cfg)); err != nil {
		return err
	}
	return enc.Close()
}
