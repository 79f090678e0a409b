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
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Shoaibashk/BattleLink/internal/serial"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for serial ports and the game controller",
	Long: `List the serial ports on this system and mark the ones that look like
the game controller (Arduino and common USB serial bridge chips).

The first marked port is the one "--device auto" picks.

Example:
  battlelink scan
  battlelink scan --json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("json", false, "output in JSON format")
	scanCmd.Flags().BoolP("verbose", "v", false, "show detailed port information")
	scanCmd.Flags().StringSlice("exclude", nil, "port name patterns to skip")
}

func runScan(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	scanner, err := serial.NewScanner(exclude)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	ports, err := scanner.Scan()
	if err != nil {
		return fmt.Errorf("failed to scan ports: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printPortsJSON(out, ports)
	}

	if len(ports) == 0 {
		fmt.Fprintln(out, "No serial ports found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d serial port(s):\n\n", len(ports))
	for _, port := range ports {
		if verbose {
			printPortVerbose(out, port)
		} else {
			printPortSimple(out, port)
		}
	}

	if p, err := serial.Detect(ports); err == nil {
		fmt.Fprintf(out, "\nController: %s\n", color.GreenString(p.Name))
	} else {
		fmt.Fprintf(out, "\n%s\n", color.YellowString("No controller detected; pass --device explicitly."))
	}
	return nil
}

func printPortSimple(out io.Writer, port serial.PortInfo) {
	marker := ""
	if port.IsController() {
		marker = color.GreenString(" [controller]")
	}
	fmt.Fprintf(out, "  %s - %s%s\n", port.Name, port.Description, marker)
}

func printPortVerbose(out io.Writer, port serial.PortInfo) {
	fmt.Fprintf(out, "  %s\n", port.Name)
	fmt.Fprintf(out, "    Description:  %s\n", port.Description)
	fmt.Fprintf(out, "    Type:         %s\n", port.PortType)
	if port.Vendor != "" {
		fmt.Fprintf(out, "    Vendor:       %s\n", port.Vendor)
	}
	if port.Product != "" {
		fmt.Fprintf(out, "    Product:      %s\n", port.Product)
	}
	if port.SerialNumber != "" {
		fmt.Fprintf(out, "    Serial:       %s\n", port.SerialNumber)
	}
	if port.VID != "" && port.PID != "" {
		fmt.Fprintf(out, "    VID/PID:      %s:%s\n", port.VID, port.PID)
	}
	fmt.Fprintf(out, "    Controller:   %v\n\n", port.IsController())
}

type portJSON struct {
	serial.PortInfo
	Type       string `json:"type"`
	Controller bool   `json:"controller"`
}

func printPortsJSON(out io.Writer, ports []serial.PortInfo) error {
	list := make([]portJSON, 0, len(ports))
	for _, p := range ports {
		list = append(list, portJSON{PortInfo: p, Type: p.PortType.String(), Controller: p.IsController()})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}
