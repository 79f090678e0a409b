//go:build linux || darwin

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

package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/template"

	"github.com/Shoaibashk/BattleLink/config"
)

const unitTemplate = `[Unit]
Description={{.Description}}
After=network.target

[Service]
Type=simple
ExecStart={{.ExecPath}} serve --config {{.ConfigPath}}
Restart={{.RestartPolicy}}
RestartSec={{.RestartDelay}}
User={{.User}}
Group={{.Group}}
SupplementaryGroups=dialout
WorkingDirectory=/

NoNewPrivileges=true
ProtectSystem=strict
ProtectHome=true
ReadWritePaths={{.LogPath}} {{.ConfigDir}}

[Install]
WantedBy=multi-user.target
`

type unitData struct {
	Description   string
	ExecPath      string
	ConfigPath    string
	ConfigDir     string
	LogPath       string
	User          string
	Group         string
	RestartPolicy string
	RestartDelay  int
}

// Run calls fn with a context that is cancelled on SIGINT or SIGTERM, which
// is how systemd stops the unit
func Run(name string, fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx)
}

func unitPath(name string) string {
	return fmt.Sprintf("/etc/systemd/system/%s.service", name)
}

func writeUnit(w io.Writer, cfg *config.Config, exePath, configPath string) error {
	tmpl, err := template.New("unit").Parse(unitTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return tmpl.Execute(w, unitData{
		Description:   cfg.Service.Description,
		ExecPath:      exePath,
		ConfigPath:    configPath,
		ConfigDir:     filepath.Dir(configPath),
		LogPath:       GetLogPath(),
		User:          "root",
		Group:         "root",
		RestartPolicy: restartPolicy(cfg.Service.RestartPolicy),
		RestartDelay:  cfg.Service.RestartDelay,
	})
}

// Install writes the unit file, stores cfg as the service configuration when
// none exists yet and reloads systemd
func Install(cfg *config.Config) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	if exePath, err = filepath.Abs(exePath); err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	configPath := GetConfigPath()
	if err := os.MkdirAll(GetLogPath(), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if cfg.Logging.File == "" {
			cfg.Logging.File = filepath.Join(GetLogPath(), "bridge.log")
		}
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	f, err := os.Create(unitPath(cfg.Service.Name))
	if err != nil {
		return fmt.Errorf("failed to create unit file: %w", err)
	}
	defer f.Close()

	if err := writeUnit(f, cfg, exePath, configPath); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	if cfg.Service.AutoStart {
		if err := systemctl("enable", cfg.Service.Name); err != nil {
			fmt.Printf("Warning: failed to enable service: %v\n", err)
		}
	}

	fmt.Printf("Service %s installed\n", cfg.Service.Name)
	fmt.Printf("  Config: %s\n", configPath)
	fmt.Printf("  Logs:   %s\n", GetLogPath())
	fmt.Printf("Start it with: sudo systemctl start %s\n", cfg.Service.Name)
	return nil
}

// Uninstall stops and removes the unit
func Uninstall(cfg *config.Config) error {
	_ = systemctl("stop", cfg.Service.Name)
	_ = systemctl("disable", cfg.Service.Name)

	if err := os.Remove(unitPath(cfg.Service.Name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}
	if err := systemctl("daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}

	fmt.Printf("Service %s removed\n", cfg.Service.Name)
	return nil
}

// Start starts the unit
func Start(cfg *config.Config) error {
	if err := systemctl("start", cfg.Service.Name); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	fmt.Printf("Service %s started\n", cfg.Service.Name)
	return nil
}

// Stop stops the unit
func Stop(cfg *config.Config) error {
	if err := systemctl("stop", cfg.Service.Name); err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}
	fmt.Printf("Service %s stopped\n", cfg.Service.Name)
	return nil
}

// Status returns the systemd active state of the unit
func Status(cfg *config.Config) (string, error) {
	out, err := exec.Command("systemctl", "is-active", cfg.Service.Name).Output()
	status := strings.TrimSpace(string(out))
	if err != nil && status == "" {
		// is-active exits non-zero for inactive units too
		return "not installed", nil
	}
	return status, nil
}

// GetConfigPath returns where the installed service reads its configuration
func GetConfigPath() string {
	return config.DefaultConfigPath()
}

// GetLogPath returns the service log directory
func GetLogPath() string {
	return "/var/log/battlelink"
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func restartPolicy(policy string) string {
	switch strings.ToLower(policy) {
	case "always":
		return "always"
	case "never":
		return "no"
	default:
		return "on-failure"
	}
}
