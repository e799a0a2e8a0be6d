package logic

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the thresholds fixed at startup.
type Config struct {
	// TrackingInterval is the minimum time between tracking runs and between
	// dead-reckoning moves.
	TrackingInterval time.Duration
	// BalanceThreshold is the largest |east-west| treated as aimed.
	BalanceThreshold int
	// SensorMinValid and SensorMaxValid bound an operational reading (inclusive).
	SensorMinValid int
	SensorMaxValid int
	// TrackPulse is the length of one corrective move while tracking.
	TrackPulse time.Duration
	// DeadReckoningPulse is the length of one westward move in redundant mode.
	DeadReckoningPulse time.Duration

	// DarkThreshold: both channels strictly below it count as dark.
	DarkThreshold int
	// WakeThreshold: light strictly above it ends a night reset.
	WakeThreshold int
	// DormancyRecoveryThreshold: light strictly above it ends dormancy in season.
	DormancyRecoveryThreshold int

	// EveningHour: darkness after this hour is night, before it is weather.
	EveningHour int
	// NightHour: redundant mode retracts for the night from this hour.
	NightHour  int
	DawnHour   int
	DawnMinute int
	// SeasonStart and SeasonEnd delimit the active months (inclusive, may wrap).
	SeasonStart time.Month
	SeasonEnd   time.Month

	RetractDuration    time.Duration
	LightingDuration   time.Duration
	LightingCutoffHour int
	// StowDuration is how long the actuator retracts on a hazard. Zero only stops.
	StowDuration time.Duration
}

// DefaultConfig returns the thresholds the tracker shipped with.
func DefaultConfig() Config {
	return Config{
		TrackingInterval:          10 * time.Minute,
		BalanceThreshold:          50,
		SensorMinValid:            10,
		SensorMaxValid:            1015,
		TrackPulse:                500 * time.Millisecond,
		DeadReckoningPulse:        time.Second,
		DarkThreshold:             100,
		WakeThreshold:             150,
		DormancyRecoveryThreshold: 200,
		EveningHour:               16,
		NightHour:                 20,
		DawnHour:                  7,
		DawnMinute:                0,
		SeasonStart:               time.March,
		SeasonEnd:                 time.October,
		RetractDuration:           30 * time.Second,
		LightingDuration:          4 * time.Hour,
		LightingCutoffHour:        0,
		StowDuration:              30 * time.Second,
	}
}

// Validate reports every inconsistent threshold.
func (c Config) Validate() error {
	var errs []error

	if c.TrackingInterval <= 0 {
		errs = append(errs, fmt.Errorf("tracking interval must be positive, got %v", c.TrackingInterval))
	}
	if c.TrackPulse <= 0 {
		errs = append(errs, fmt.Errorf("track pulse must be positive, got %v", c.TrackPulse))
	}
	if c.DeadReckoningPulse <= 0 {
		errs = append(errs, fmt.Errorf("dead reckoning pulse must be positive, got %v", c.DeadReckoningPulse))
	}
	if c.BalanceThreshold < 0 {
		errs = append(errs, fmt.Errorf("balance threshold must not be negative, got %d", c.BalanceThreshold))
	}
	if c.SensorMinValid >= c.SensorMaxValid {
		errs = append(errs, fmt.Errorf("sensor valid range [%d,%d] is empty", c.SensorMinValid, c.SensorMaxValid))
	}
	if c.RetractDuration < 0 || c.LightingDuration < 0 || c.StowDuration < 0 {
		errs = append(errs, errors.New("retract, lighting and stow durations must not be negative"))
	}

	hours := map[string]int{
		"evening hour":         c.EveningHour,
		"night hour":           c.NightHour,
		"dawn hour":            c.DawnHour,
		"lighting cutoff hour": c.LightingCutoffHour,
	}
	for name, h := range hours {
		if h < 0 || h > 23 {
			errs = append(errs, fmt.Errorf("%s must be 0-23, got %d", name, h))
		}
	}
	if c.DawnMinute < 0 || c.DawnMinute > 59 {
		errs = append(errs, fmt.Errorf("dawn minute must be 0-59, got %d", c.DawnMinute))
	}
	if c.SeasonStart < time.January || c.SeasonStart > time.December {
		errs = append(errs, fmt.Errorf("season start month must be 1-12, got %d", c.SeasonStart))
	}
	if c.SeasonEnd < time.January || c.SeasonEnd > time.December {
		errs = append(errs, fmt.Errorf("season end month must be 1-12, got %d", c.SeasonEnd))
	}

	return errors.Join(errs...)
}

// InSeason reports whether m falls in the active season. A start month after
// the end month wraps over the new year.
func (c Config) InSeason(m time.Month) bool {
	if c.SeasonStart <= c.SeasonEnd {
		return m >= c.SeasonStart && m <= c.SeasonEnd
	}
	return m >= c.SeasonStart || m <= c.SeasonEnd
}
