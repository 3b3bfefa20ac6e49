package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	DatabasePath string        `yaml:"database_path,omitempty"` // Default: ./energy.db
	TariffFile   string        `yaml:"tariff_file,omitempty"`   // Default: ./tariffs.yaml
	LogLevel     string        `yaml:"log_level,omitempty"`     // debug, info, warn, error (default: info)
	MQTT         MQTTConfig    `yaml:"mqtt,omitempty"`
	Sessions     SessionConfig `yaml:"sessions,omitempty"`
	ImportDays   int           `yaml:"import_days,omitempty"` // Default lookback when no cursor exists (fallback: 30)
}

// MQTTConfig holds MQTT broker settings for publishing readings and sessions
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`                 // e.g., "10.0.0.5:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // Default: "home_energy"
}

// SessionConfig holds session detection settings
type SessionConfig struct {
	Sensor string `yaml:"sensor,omitempty"` // Default: "sauna"
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetDatabasePath returns the database path with a local default
func (c *Config) GetDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return "energy.db"
}

// GetTariffFile returns the tariff file path with a local default
func (c *Config) GetTariffFile() string {
	if c.TariffFile != "" {
		return c.TariffFile
	}
	return "tariffs.yaml"
}

// GetLogLevel returns the configured log level, defaulting to info
func (c *Config) GetLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return "info"
}

// GetImportDays returns the full-backfill lookback used when a source has no
// cursor yet, with a default of 30 days
func (c *Config) GetImportDays() int {
	if c.ImportDays <= 0 {
		return 30
	}
	return c.ImportDays
}

// GetSessionSensor returns the sensor scanned by session detection
func (c *Config) GetSessionSensor() string {
	if c.Sessions.Sensor != "" {
		return c.Sessions.Sensor
	}
	return "sauna"
}

// GetTopicPrefix returns the MQTT topic prefix with a default
func (m *MQTTConfig) GetTopicPrefix() string {
	if m.TopicPrefix != "" {
		return m.TopicPrefix
	}
	return "home_energy"
}
