package config

import (
	"fmt"
	"net/url"
	"time"
)

// CurrentVersion is the config file format version
const CurrentVersion = 1

// Config represents the entire kiosk configuration file.
type Config struct {
	Version int           `yaml:"version" mapstructure:"version"`
	Backend BackendConfig `yaml:"backend" mapstructure:"backend"`
	Kiosk   KioskConfig   `yaml:"kiosk" mapstructure:"kiosk"`
	Keypad  KeypadConfig  `yaml:"keypad" mapstructure:"keypad"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// BackendConfig locates the registration backend.
type BackendConfig struct {
	URL             string `yaml:"url" mapstructure:"url"`                           // Base URL; empty means discover
	TimeoutSeconds  int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`   // Per-request timeout
	Discover        bool   `yaml:"discover" mapstructure:"discover"`                 // Use mDNS when URL is empty
	DiscoverTimeout int    `yaml:"discover_timeout" mapstructure:"discover_timeout"` // mDNS browse timeout in seconds
}

// KioskConfig describes the boarding house this kiosk serves.
type KioskConfig struct {
	Name            string `yaml:"name" mapstructure:"name"`                           // Shown in the header
	BoardingHouseID int    `yaml:"boarding_house_id" mapstructure:"boarding_house_id"` // Backend id of the house
	Rooms           int    `yaml:"rooms" mapstructure:"rooms"`                         // Rows in the room grid
}

// KeypadConfig controls the remote keypad bridge.
type KeypadConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Listen  string `yaml:"listen" mapstructure:"listen"`
}

// LogConfig controls structured logging. Logging is off when Level is empty.
type LogConfig struct {
	Level string `yaml:"level,omitempty" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Backend: BackendConfig{
			URL:             "http://127.0.0.1:8000",
			TimeoutSeconds:  15,
			Discover:        false,
			DiscoverTimeout: 5,
		},
		Kiosk: KioskConfig{
			Name:            "Boarding House",
			BoardingHouseID: 1,
			Rooms:           4,
		},
		Keypad: KeypadConfig{
			Enabled: false,
			Listen:  ":8765",
		},
	}
}

// Defaults flattens NewConfig into dotted keys ("backend.url") for layering
// under files, environment and flags.
func Defaults() map[string]any {
	c := NewConfig()
	return map[string]any{
		"version":                  c.Version,
		"backend.url":              c.Backend.URL,
		"backend.timeout_seconds":  c.Backend.TimeoutSeconds,
		"backend.discover":         c.Backend.Discover,
		"backend.discover_timeout": c.Backend.DiscoverTimeout,
		"kiosk.name":               c.Kiosk.Name,
		"kiosk.boarding_house_id":  c.Kiosk.BoardingHouseID,
		"kiosk.rooms":              c.Kiosk.Rooms,
		"keypad.enabled":           c.Keypad.Enabled,
		"keypad.listen":            c.Keypad.Listen,
		"log.level":                c.Log.Level,
		"log.file":                 c.Log.File,
	}
}

// Timeout returns the backend request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// DiscoverTimeout returns the mDNS browse timeout
func (c *Config) DiscoverTimeout() time.Duration {
	return time.Duration(c.Backend.DiscoverTimeout) * time.Second
}

// Validate checks the configuration for values the kiosk cannot run with.
// Returns a slice of problems (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("version: unsupported config version %d (expected %d)", c.Version, CurrentVersion))
	}

	if c.Backend.URL == "" {
		if !c.Backend.Discover {
			errs = append(errs, fmt.Errorf("backend.url: required unless backend.discover is true"))
		}
	} else if u, err := url.Parse(c.Backend.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.url: %q is not an http(s) URL", c.Backend.URL))
	}

	if c.Backend.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("backend.timeout_seconds: must be positive, got %d", c.Backend.TimeoutSeconds))
	}
	if c.Backend.Discover && c.Backend.DiscoverTimeout <= 0 {
		errs = append(errs, fmt.Errorf("backend.discover_timeout: must be positive, got %d", c.Backend.DiscoverTimeout))
	}

	if c.Kiosk.BoardingHouseID <= 0 {
		errs = append(errs, fmt.Errorf("kiosk.boarding_house_id: must be positive, got %d", c.Kiosk.BoardingHouseID))
	}
	if c.Kiosk.Rooms < 1 {
		errs = append(errs, fmt.Errorf("kiosk.rooms: must be at least 1, got %d", c.Kiosk.Rooms))
	}

	if c.Keypad.Enabled && c.Keypad.Listen == "" {
		errs = append(errs, fmt.Errorf("keypad.listen: required when keypad.enabled is true"))
	}

	return errs
}
