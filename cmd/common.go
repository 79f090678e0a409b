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

package cmd

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Shoaibashk/BattleLink/config"
	"github.com/Shoaibashk/BattleLink/internal/bridge"
	"github.com/Shoaibashk/BattleLink/internal/logging"
	"github.com/Shoaibashk/BattleLink/internal/serial"
)

// loadConfig reads --config, falling back to the default path, and applies
// the flags every bridge command shares
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(config.DefaultConfigPath())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if f := cmd.Flags().Lookup("device"); f != nil && f.Changed {
		cfg.Serial.Device = f.Value.String()
	}
	if f := cmd.Flags().Lookup("baud"); f != nil && f.Changed {
		cfg.Serial.Defaults.BaudRate, _ = cmd.Flags().GetInt("baud")
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
	}

	return cfg, cfg.Validate()
}

func addBridgeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "config file path")
	cmd.Flags().StringP("device", "d", "", `serial device, or "auto" to detect the controller (overrides config)`)
	cmd.Flags().IntP("baud", "b", 0, "baud rate (overrides config)")
	cmd.Flags().Bool("debug", false, "enable debug logging")
}

// newLogger builds the process logger. The closer is nil unless logging
// goes to a file.
func newLogger(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return logger, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger.With().Str("version", version).Logger(), closer, nil
}

func portConfig(cfg *config.Config) (serial.PortConfig, error) {
	d := cfg.Serial.Defaults

	parity, err := serial.ParseParity(d.Parity)
	if err != nil {
		return serial.PortConfig{}, err
	}
	stopBits, err := serial.ParseStopBits(d.StopBits)
	if err != nil {
		return serial.PortConfig{}, err
	}

	pc := serial.PortConfig{
		BaudRate:      d.BaudRate,
		DataBits:      d.DataBits,
		StopBits:      stopBits,
		Parity:        parity,
		ReadTimeoutMs: d.ReadTimeoutMs,
		MaxLineLength: d.MaxLineLength,
	}
	return pc, pc.Validate()
}

// newBridge builds a bridge whose device is resolved through the port scanner
func newBridge(cfg *config.Config, h bridge.Handler, logger zerolog.Logger) (*bridge.Bridge, *serial.Scanner, error) {
	pc, err := portConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid serial settings: %w", err)
	}

	scanner, err := serial.NewScanner(cfg.Serial.ExcludePatterns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	b := bridge.New(bridge.Config{Device: cfg.Serial.Device, Port: pc}, h,
		bridge.WithLogger(logger),
		bridge.WithResolver(scanner.Resolve),
	)
	return b, scanner, nil
}
