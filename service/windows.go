//go:build windows

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
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/Shoaibashk/BattleLink/config"
)

// handler adapts a run function to svc.Handler. A stop or shutdown request
// cancels the context passed to fn.
type handler struct {
	fn   func(ctx context.Context) error
	elog *eventlog.Log
}

func (h *handler) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown

	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() { errChan <- h.fn(ctx) }()

	changes <- svc.Status{State: svc.Running, Accepts: accepted}

	for {
		select {
		case err := <-errChan:
			if err != nil {
				h.elog.Error(1, fmt.Sprintf("bridge agent failed: %v", err))
				return false, 1
			}
			return false, 0
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				h.elog.Info(1, "service stop requested")
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				if err := <-errChan; err != nil {
					h.elog.Error(1, fmt.Sprintf("bridge agent stopped with error: %v", err))
				}
				return false, 0
			default:
				h.elog.Warning(1, fmt.Sprintf("unexpected control request #%d", c.Cmd))
			}
		}
	}
}

// Run calls fn under the Service Control Manager when the process was started
// as a service, and in the foreground with Ctrl+C handling otherwise
func Run(name string, fn func(ctx context.Context) error) error {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return fmt.Errorf("failed to determine if running as service: %w", err)
	}

	if !isService {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return fn(ctx)
	}

	elog, err := eventlog.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer elog.Close()

	elog.Info(1, fmt.Sprintf("starting %s service", name))
	if err := svc.Run(name, &handler{fn: fn, elog: elog}); err != nil {
		elog.Error(1, fmt.Sprintf("service failed: %v", err))
		return err
	}
	elog.Info(1, "service stopped")
	return nil
}

// Install registers the service with the Service Control Manager
func Install(cfg *config.Config) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	configPath := GetConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if cfg.Logging.File == "" {
			cfg.Logging.File = filepath.Join(GetLogPath(), "bridge.log")
		}
		if err := os.MkdirAll(GetLogPath(), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to service manager: %w", err)
	}
	defer m.Disconnect()

	if s, err := m.OpenService(cfg.Service.Name); err == nil {
		s.Close()
		return fmt.Errorf("service %s already exists", cfg.Service.Name)
	}

	startType := uint32(mgr.StartManual)
	if cfg.Service.AutoStart {
		startType = mgr.StartAutomatic
	}

	s, err := m.CreateService(cfg.Service.Name, exePath, mgr.Config{
		DisplayName: cfg.Service.DisplayName,
		Description: cfg.Service.Description,
		StartType:   startType,
	}, "serve", "--config", configPath)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer s.Close()

	if cfg.Service.RestartPolicy != "never" {
		delay := time.Duration(cfg.Service.RestartDelay) * time.Second
		actions := []mgr.RecoveryAction{{Type: mgr.ServiceRestart, Delay: delay}}
		if err := s.SetRecoveryActions(actions, 86400); err != nil {
			fmt.Printf("Warning: failed to set recovery actions: %v\n", err)
		}
	}

	if err := eventlog.InstallAsEventCreate(cfg.Service.Name, eventlog.Error|eventlog.Warning|eventlog.Info); err != nil {
		s.Delete()
		return fmt.Errorf("failed to setup event log: %w", err)
	}

	fmt.Printf("Service %s installed\n", cfg.Service.Name)
	fmt.Printf("  Config: %s\n", configPath)
	return nil
}

// Uninstall removes the service and its event log source
func Uninstall(cfg *config.Config) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to service manager: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(cfg.Service.Name)
	if err != nil {
		return fmt.Errorf("service %s not found", cfg.Service.Name)
	}
	defer s.Close()

	if err := s.Delete(); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if err := eventlog.Remove(cfg.Service.Name); err != nil {
		fmt.Printf("Warning: failed to remove event log: %v\n", err)
	}

	fmt.Printf("Service %s removed\n", cfg.Service.Name)
	return nil
}

func openService(name string) (*mgr.Mgr, *mgr.Service, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to service manager: %w", err)
	}
	s, err := m.OpenService(name)
	if err != nil {
		m.Disconnect()
		return nil, nil, fmt.Errorf("failed to open service: %w", err)
	}
	return m, s, nil
}

// Start starts the service
func Start(cfg *config.Config) error {
	m, s, err := openService(cfg.Service.Name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	if err := s.Start(); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	fmt.Printf("Service %s started\n", cfg.Service.Name)
	return nil
}

// Stop stops the service and waits up to 30 seconds for it to exit
func Stop(cfg *config.Config) error {
	m, s, err := openService(cfg.Service.Name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	status, err := s.Control(svc.Stop)
	if err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	for status.State != svc.Stopped {
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for service to stop")
		}
		time.Sleep(500 * time.Millisecond)
		if status, err = s.Query(); err != nil {
			return fmt.Errorf("failed to query service: %w", err)
		}
	}

	fmt.Printf("Service %s stopped\n", cfg.Service.Name)
	return nil
}

// Status returns the service state
func Status(cfg *config.Config) (string, error) {
	m, s, err := openService(cfg.Service.Name)
	if err != nil {
		return "not installed", nil
	}
	defer m.Disconnect()
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return "", fmt.Errorf("failed to query service: %w", err)
	}

	switch status.State {
	case svc.Stopped:
		return "stopped", nil
	case svc.StartPending:
		return "starting", nil
	case svc.StopPending:
		return "stopping", nil
	case svc.Running:
		return "running", nil
	case svc.Paused:
		return "paused", nil
	default:
		return "unknown", nil
	}
}

// GetConfigPath returns where the installed service reads its configuration
func GetConfigPath() string {
	return config.DefaultConfigPath()
}

// GetLogPath returns the service log directory
func GetLogPath() string {
	programData := os.Getenv("ProgramData")
	if programData == "" {
		programData = `C:\ProgramData`
	}
	return filepath.Join(programData, "BattleLink", "logs")
}
