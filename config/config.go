/*
Copyright 2024 BattleLink Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config provides configuration loading and management for the BattleLink bridge.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete bridge configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	TLS     TLSConfig     `yaml:"tls"`
	Serial  SerialConfig  `yaml:"serial"`
	Game    GameConfig    `yaml:"game"`
	Logging LoggingConfig `yaml:"logging"`
	Service ServiceConfig `yaml:"service"`
}

// ServerConfig holds settings of the remote presentation endpoints
type ServerConfig struct {
	GRPCEnabled      bool   `yaml:"grpc_enabled"`
	GRPCAddress      string `yaml:"grpc_address"`
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddress string `yaml:"websocket_address"`
	MaxSubscribers   int    `yaml:"max_subscribers"`
}

// TLSConfig holds TLS/SSL settings
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`
}

// SerialConfig holds serial port settings
type SerialConfig struct {
	// Device is the controller port ("/dev/ttyACM0", "COM3") or "auto"
	Device          string         `yaml:"device"`
	Defaults        SerialDefaults `yaml:"defaults"`
	ScanInterval    int            `yaml:"scan_interval"`
	ExcludePatterns []string       `yaml:"exclude_patterns"`
}

// SerialDefaults holds serial port parameters
type SerialDefaults struct {
	BaudRate      int    `yaml:"baud_rate"`
	DataBits      int    `yaml:"data_bits"`
	StopBits      int    `yaml:"stop_bits"`
	Parity        string `yaml:"parity"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
	MaxLineLength int    `yaml:"max_line_length"`
}

// GameConfig holds consumer-side settings
type GameConfig struct {
	// TickIntervalMs is how often queued controller lines are dispatched
	TickIntervalMs int `yaml:"tick_interval_ms"`
	// Difficulty, when set, is sent to the controller right after connecting
	Difficulty int `yaml:"difficulty"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ServiceConfig holds system service settings
type ServiceConfig struct {
	Name          string `yaml:"name"`
	DisplayName   string `yaml:"display_name"`
	Description   string `yaml:"description"`
	AutoStart     bool   `yaml:"auto_start"`
	RestartPolicy string `yaml:"restart_policy"`
	RestartDelay  int    `yaml:"restart_delay"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			GRPCEnabled:      true,
			GRPCAddress:      "127.0.0.1:50061",
			WebSocketEnabled: false,
			WebSocketAddress: "127.0.0.1:8061",
			MaxSubscribers:   16,
		},
		TLS: TLSConfig{
			Enabled: false,
		},
		Serial: SerialConfig{
			Device: "auto",
			Defaults: SerialDefaults{
				BaudRate:      9600,
				DataBits:      8,
				StopBits:      1,
				Parity:        "none",
				ReadTimeoutMs: 500,
				MaxLineLength: 4096,
			},
			ScanInterval: 0,
		},
		Game: GameConfig{
			TickIntervalMs: 16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Service: ServiceConfig{
			Name:          "battlelink",
			DisplayName:   "BattleLink Controller Bridge",
			Description:   "Serial bridge between the naval battle controller and its displays",
			AutoStart:     true,
			RestartPolicy: "on-failure",
			RestartDelay:  5,
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads configuration from file, or returns default if file doesn't exist
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	return Load(path)
}

// TickInterval returns the dispatch period
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Game.TickIntervalMs) * time.Millisecond
}

// Save writes configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.GRPCEnabled && c.Server.GRPCAddress == "" {
		return fmt.Errorf("grpc_address is required when gRPC is enabled")
	}

	if c.Server.WebSocketEnabled && c.Server.WebSocketAddress == "" {
		return fmt.Errorf("websocket_address is required when WebSocket is enabled")
	}

	if c.Server.MaxSubscribers < 1 {
		return fmt.Errorf("max_subscribers must be at least 1")
	}

	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("TLS cert_file and key_file are required when TLS is enabled")
		}
	}

	if c.Serial.Device == "" {
		return fmt.Errorf("serial device is required (use \"auto\" to detect it)")
	}

	if c.Serial.Defaults.BaudRate < 1 {
		return fmt.Errorf("baud_rate must be positive")
	}

	if c.Serial.Defaults.ReadTimeoutMs < 1 {
		return fmt.Errorf("read_timeout_ms must be positive")
	}

	if c.Game.TickIntervalMs < 1 {
		return fmt.Errorf("tick_interval_ms must be positive")
	}

	if c.Game.Difficulty < 0 {
		return fmt.Errorf("difficulty must not be negative")
	}

	validLogLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BATTLELINK_DEVICE"); v != "" {
		c.Serial.Device = v
	}
	if v := os.Getenv("BATTLELINK_BAUD_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Serial.Defaults.BaudRate = n
		}
	}
	if v := os.Getenv("BATTLELINK_GRPC_ADDRESS"); v != "" {
		c.Server.GRPCAddress = v
	}
	if v := os.Getenv("BATTLELINK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BATTLELINK_TLS_ENABLED"); v == "true" {
		c.TLS.Enabled = true
	}
	if v := os.Getenv("BATTLELINK_TLS_CERT"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("BATTLELINK_TLS_KEY"); v != "" {
		c.TLS.KeyFile = v
	}
}

// DefaultConfigPath returns the default configuration file path for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "BattleLink", "bridge.yaml")
	case "darwin":
		return "/usr/local/etc/battlelink/bridge.yaml"
	default:
		return "/etc/battlelink/bridge.yaml"
	}
}
