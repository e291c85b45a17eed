// Package settings manages persistent user defaults for the commander CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Built-in defaults applied when neither a flag nor a setting is present.
const (
	DefaultWorkers        = 10
	DefaultPort           = 22
	DefaultTimeout        = 10 * time.Second
	DefaultCommandTimeout = 60 * time.Second
)

// Keys lists the settable keys in display order.
var Keys = []string{"workers", "port", "timeout", "command_timeout", "output_dir", "profiles", "audit_log"}

// Settings holds persistent user preferences. Zero values mean "use the
// built-in default".
type Settings struct {
	// Workers is the default -p pool size
	Workers int `json:"workers,omitempty"`

	// Port is the default SSH port
	Port int `json:"port,omitempty"`

	// Timeout bounds connect and login, as a Go duration ("10s")
	Timeout string `json:"timeout,omitempty"`

	// CommandTimeout bounds each command round-trip
	CommandTimeout string `json:"command_timeout,omitempty"`

	// OutputDir is where <address>.txt and error.txt are written
	OutputDir string `json:"output_dir,omitempty"`

	// Profiles is a YAML file overriding the built-in CLI profiles
	Profiles string `json:"profiles,omitempty"`

	// AuditLog enables the JSON-lines audit log at this path
	AuditLog string `json:"audit_log,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "commander_settings.json"
	}
	return filepath.Join(home, ".commander", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields
// empty settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Get returns the stored value of key, "" when unset.
func (s *Settings) Get(key string) (string, error) {
	switch key {
	case "workers":
		return itoa(s.Workers), nil
	case "port":
		return itoa(s.Port), nil
	case "timeout":
		return s.Timeout, nil
	case "command_timeout":
		return s.CommandTimeout, nil
	case "output_dir":
		return s.OutputDir, nil
	case "profiles":
		return s.Profiles, nil
	case "audit_log":
		return s.AuditLog, nil
	}
	return "", unknownKey(key)
}

// Set validates and stores value under key.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "workers", "port":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		if key == "port" {
			if n > 65535 {
				return fmt.Errorf("port out of range: %d", n)
			}
			s.Port = n
		} else {
			s.Workers = n
		}
	case "timeout", "command_timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%s must be a positive duration (e.g. 30s), got %q", key, value)
		}
		if key == "timeout" {
			s.Timeout = value
		} else {
			s.CommandTimeout = value
		}
	case "output_dir":
		s.OutputDir = value
	case "profiles":
		s.Profiles = value
	case "audit_log":
		s.AuditLog = value
	default:
		return unknownKey(key)
	}
	return nil
}

// GetWorkers returns the pool size (with fallback)
func (s *Settings) GetWorkers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return DefaultWorkers
}

// GetPort returns the SSH port (with fallback)
func (s *Settings) GetPort() int {
	if s.Port > 0 {
		return s.Port
	}
	return DefaultPort
}

// GetTimeout returns the connect timeout (with fallback)
func (s *Settings) GetTimeout() time.Duration {
	return duration(s.Timeout, DefaultTimeout)
}

// GetCommandTimeout returns the per-command timeout (with fallback)
func (s *Settings) GetCommandTimeout() time.Duration {
	return duration(s.CommandTimeout, DefaultCommandTimeout)
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}

func duration(v string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return fallback
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown setting: %s (valid: workers, port, timeout, command_timeout, output_dir, profiles, audit_log)", key)
}
