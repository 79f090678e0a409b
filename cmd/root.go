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
	"os"

	"github.com/spf13/cobra"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "battlelink",
	Short: "BattleLink - serial bridge for the naval battle controller",
	Long: `BattleLink connects the naval battle game controller to a PC over its
USB serial link.

It reads the controller's line protocol, keeps the game state (counters,
8x8 board, timer) and sends operator commands back to the device. The state
can be watched from the terminal or served to remote displays over gRPC
and WebSocket.

Quick Start:
  battlelink scan              # List serial ports and spot the controller
  battlelink play              # Play from this terminal
  battlelink serve             # Run the headless bridge agent
  battlelink service install   # Install the agent as a system service`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`{{.Name}} version {{.Version}}
commit: ` + commit + `
built at: ` + date + `
`)
}
