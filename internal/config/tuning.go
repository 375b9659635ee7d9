package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/stride.report/internal/energy"
)

// DefaultConfigPath is the canonical tuning defaults file.
const DefaultConfigPath = "config/stride.defaults.json"

const maxFileSize = 1 << 20

// TuningConfig holds the tracking engine knobs. Unset fields fall back to
// the defaults returned by the Get* accessors, so partial files are safe.
type TuningConfig struct {
	// Sample filter
	MaxAccuracyMeters *float64 `json:"max_accuracy_meters,omitempty"`
	MinDisplacementKm *float64 `json:"min_displacement_km,omitempty"`

	// Speed estimator
	SpeedWindow *int `json:"speed_window,omitempty"`

	// Session loop
	FixQueueSize *int    `json:"fix_queue_size,omitempty"`
	TickInterval *string `json:"tick_interval,omitempty"` // duration string like "1s"
	FixTimeout   *string `json:"fix_timeout,omitempty"`   // "0s" disables the watchdog

	// Receiver
	HDOPUereMeters *float64 `json:"hdop_uere_meters,omitempty"`
	BaudRate       *int     `json:"baud_rate,omitempty"`

	// Fallback body metrics when no profile is supplied
	DefaultHeightCm *float64 `json:"default_height_cm,omitempty"`
	DefaultWeightKg *float64 `json:"default_weight_kg,omitempty"`
	DefaultGender   *string  `json:"default_gender,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultTuningConfig returns a config with every field populated.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		MaxAccuracyMeters: ptrFloat64(20),
		MinDisplacementKm: ptrFloat64(0.005),
		SpeedWindow:       ptrInt(5),
		FixQueueSize:      ptrInt(64),
		TickInterval:      ptrString("1s"),
		FixTimeout:        ptrString("10s"),
		HDOPUereMeters:    ptrFloat64(5),
		BaudRate:          ptrInt(9600),
		DefaultHeightCm:   ptrFloat64(170),
		DefaultWeightKg:   ptrFloat64(70),
		DefaultGender:     ptrString(string(energy.Other)),
	}
}

// LoadTuningConfig reads and validates a JSON tuning file.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the working directory
// or a parent of it. It panics on failure and is meant for tests.
func MustLoadDefaultConfig() *TuningConfig {
	for _, prefix := range []string{"", "../", "../../", "../../../"} {
		if cfg, err := LoadTuningConfig(prefix + DefaultConfigPath); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate rejects values the engine cannot run with.
func (c *TuningConfig) Validate() error {
	if c.MaxAccuracyMeters != nil && *c.MaxAccuracyMeters <= 0 {
		return fmt.Errorf("max_accuracy_meters must be positive, got %f", *c.MaxAccuracyMeters)
	}
	if c.MinDisplacementKm != nil && *c.MinDisplacementKm < 0 {
		return fmt.Errorf("min_displacement_km must be non-negative, got %f", *c.MinDisplacementKm)
	}
	if c.SpeedWindow != nil && *c.SpeedWindow < 2 {
		return fmt.Errorf("speed_window must be at least 2, got %d", *c.SpeedWindow)
	}
	if c.FixQueueSize != nil && *c.FixQueueSize < 1 {
		return fmt.Errorf("fix_queue_size must be positive, got %d", *c.FixQueueSize)
	}
	if c.TickInterval != nil && *c.TickInterval != "" {
		d, err := time.ParseDuration(*c.TickInterval)
		if err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("tick_interval must be positive, got %s", d)
		}
	}
	if c.FixTimeout != nil && *c.FixTimeout != "" {
		d, err := time.ParseDuration(*c.FixTimeout)
		if err != nil {
			return fmt.Errorf("invalid fix_timeout '%s': %w", *c.FixTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("fix_timeout must be non-negative, got %s", d)
		}
	}
	if c.HDOPUereMeters != nil && *c.HDOPUereMeters <= 0 {
		return fmt.Errorf("hdop_uere_meters must be positive, got %f", *c.HDOPUereMeters)
	}
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}
	if c.DefaultHeightCm != nil && *c.DefaultHeightCm <= 0 {
		return fmt.Errorf("default_height_cm must be positive, got %f", *c.DefaultHeightCm)
	}
	if c.DefaultWeightKg != nil && *c.DefaultWeightKg <= 0 {
		return fmt.Errorf("default_weight_kg must be positive, got %f", *c.DefaultWeightKg)
	}
	return nil
}

func (c *TuningConfig) GetMaxAccuracyMeters() float64 {
	if c.MaxAccuracyMeters == nil {
		return 20
	}
	return *c.MaxAccuracyMeters
}

func (c *TuningConfig) GetMinDisplacementKm() float64 {
	if c.MinDisplacementKm == nil {
		return 0.005
	}
	return *c.MinDisplacementKm
}

func (c *TuningConfig) GetSpeedWindow() int {
	if c.SpeedWindow == nil {
		return 5
	}
	return *c.SpeedWindow
}

func (c *TuningConfig) GetFixQueueSize() int {
	if c.FixQueueSize == nil {
		return 64
	}
	return *c.FixQueueSize
}

// GetTickInterval returns the elapsed-time ticker period.
func (c *TuningConfig) GetTickInterval() time.Duration {
	return parseDurationOr(c.TickInterval, time.Second)
}

// GetFixTimeout returns how long the receiver may stay silent before a
// timeout error is raised. Zero disables the watchdog.
func (c *TuningConfig) GetFixTimeout() time.Duration {
	return parseDurationOr(c.FixTimeout, 10*time.Second)
}

func (c *TuningConfig) GetHDOPUereMeters() float64 {
	if c.HDOPUereMeters == nil {
		return 5
	}
	return *c.HDOPUereMeters
}

func (c *TuningConfig) GetBaudRate() int {
	if c.BaudRate == nil {
		return 9600
	}
	return *c.BaudRate
}

// GetBodyMetrics returns the fallback profile.
func (c *TuningConfig) GetBodyMetrics() energy.BodyMetrics {
	m := energy.BodyMetrics{HeightCm: 170, WeightKg: 70, Gender: energy.Other}
	if c.DefaultHeightCm != nil {
		m.HeightCm = *c.DefaultHeightCm
	}
	if c.DefaultWeightKg != nil {
		m.WeightKg = *c.DefaultWeightKg
	}
	if c.DefaultGender != nil {
		m.Gender = energy.ParseGender(*c.DefaultGender)
	}
	return m
}

func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def
	}
	return d
}
