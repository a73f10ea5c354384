// Package config loads and validates planner tuning parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for planner tuning.
// All fields are optional pointers; the Get* accessors supply defaults
// so a partial JSON file is safe.
type TuningConfig struct {
	// Loop params
	TickRateHz *float64 `json:"tick_rate_hz,omitempty"`

	// Horizon params
	LookaheadWps *int     `json:"lookahead_wps,omitempty"`
	CruiseSpeed  *float64 `json:"cruise_speed,omitempty"` // m/s

	// Braking params
	MaxDecel       *float64 `json:"max_decel,omitempty"`       // m/s^2
	StopBuffer     *float64 `json:"stop_buffer,omitempty"`     // m
	CreepThreshold *float64 `json:"creep_threshold,omitempty"` // m/s
	CreepSpeed     *float64 `json:"creep_speed,omitempty"`     // m/s
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields
// omitted from the JSON retain their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.TickRateHz != nil && *c.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %f", *c.TickRateHz)
	}
	if c.LookaheadWps != nil && *c.LookaheadWps <= 0 {
		return fmt.Errorf("lookahead_wps must be positive, got %d", *c.LookaheadWps)
	}
	if c.MaxDecel != nil && *c.MaxDecel <= 0 {
		return fmt.Errorf("max_decel must be positive, got %f", *c.MaxDecel)
	}
	if c.StopBuffer != nil && *c.StopBuffer < 0 {
		return fmt.Errorf("stop_buffer must be non-negative, got %f", *c.StopBuffer)
	}
	if c.CruiseSpeed != nil && *c.CruiseSpeed < 0 {
		return fmt.Errorf("cruise_speed must be non-negative, got %f", *c.CruiseSpeed)
	}
	if c.CreepThreshold != nil && *c.CreepThreshold < 0 {
		return fmt.Errorf("creep_threshold must be non-negative, got %f", *c.CreepThreshold)
	}
	if c.CreepSpeed != nil && *c.CreepSpeed < 0 {
		return fmt.Errorf("creep_speed must be non-negative, got %f", *c.CreepSpeed)
	}
	return nil
}

// GetTickRateHz returns the tick_rate_hz value or the default.
func (c *TuningConfig) GetTickRateHz() float64 {
	if c.TickRateHz == nil {
		return 10.0
	}
	return *c.TickRateHz
}

// GetLookaheadWps returns the lookahead_wps value or the default.
func (c *TuningConfig) GetLookaheadWps() int {
	if c.LookaheadWps == nil {
		return 200
	}
	return *c.LookaheadWps
}

// GetCruiseSpeed returns the cruise_speed value or the default.
// The default is a placeholder for a nominal path speed limit.
func (c *TuningConfig) GetCruiseSpeed() float64 {
	if c.CruiseSpeed == nil {
		return 15.0
	}
	return *c.CruiseSpeed
}

// GetMaxDecel returns the max_decel value or the default.
func (c *TuningConfig) GetMaxDecel() float64 {
	if c.MaxDecel == nil {
		return 4.0
	}
	return *c.MaxDecel
}

// GetStopBuffer returns the stop_buffer value or the default.
func (c *TuningConfig) GetStopBuffer() float64 {
	if c.StopBuffer == nil {
		return 5.0
	}
	return *c.StopBuffer
}

// GetCreepThreshold returns the creep_threshold value or the default.
func (c *TuningConfig) GetCreepThreshold() float64 {
	if c.CreepThreshold == nil {
		return 3.0
	}
	return *c.CreepThreshold
}

// GetCreepSpeed returns the creep_speed value or the default.
func (c *TuningConfig) GetCreepSpeed() float64 {
	if c.CreepSpeed == nil {
		return 3.0
	}
	return *c.CreepSpeed
}
