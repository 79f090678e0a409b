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
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Shoaibashk/BattleLink/config"
	"github.com/Shoaibashk/BattleLink/service"
)

func serviceManagerName() string {
	if runtime.GOOS == "windows" {
		return "Windows service"
	}
	return "systemd service"
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the bridge agent as a " + serviceManagerName(),
	Long: `Install, remove, start, stop and query the BattleLink agent as a
` + serviceManagerName() + `. The installed service runs "battlelink serve" with
the configuration at the default path.

Most operations need administrator or root privileges.`,
}

// serviceAction wraps a service function as a cobra RunE
func serviceAction(fn func(*config.Config) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServiceConfig(cmd)
		if err != nil {
			return err
		}
		return fn(cfg)
	}
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the service state",
	RunE: serviceAction(func(cfg *config.Config) error {
		status, err := service.Status(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Service %s: %s\n", cfg.Service.Name, status)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(
		&cobra.Command{Use: "install", Short: "Install the service", RunE: serviceAction(service.Install)},
		&cobra.Command{Use: "uninstall", Short: "Remove the service", RunE: serviceAction(service.Uninstall)},
		&cobra.Command{Use: "start", Short: "Start the service", RunE: serviceAction(service.Start)},
		&cobra.Command{Use: "stop", Short: "Stop the service", RunE: serviceAction(service.Stop)},
		serviceStatusCmd,
	)

	serviceCmd.PersistentFlags().StringP("config", "c", "", "config file path")
}

func loadServiceConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = service.GetConfigPath()
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
