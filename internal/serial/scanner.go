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

// Package serial provides the line-oriented serial transport used to talk to the
// game controller, and discovery of the port it is attached to.
package serial

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial/enumerator"
)

// AutoDevice is the device name that asks for controller auto-detection
const AutoDevice = "auto"

type usbVendor struct {
	name string
	rank int // lower wins when several candidates are plugged in
}

// Boards the controller firmware ships on rank ahead of generic USB-serial
// bridge chips.
var controllerVendors = map[string]usbVendor{
	"2341": {"Arduino", 0},
	"2A03": {"Arduino", 0},
	"1A86": {"CH340", 1},
	"10C4": {"CP210x", 1},
	"0403": {"FTDI", 2},
}

// PortType represents the type of serial port
type PortType int

const (
	PortTypeUnknown PortType = iota
	PortTypeUSB
	PortTypeNative
	PortTypeBluetooth
	PortTypeVirtual
)

// String returns the string representation of PortType
func (p PortType) String() string {
	switch p {
	case PortTypeUSB:
		return "USB"
	case PortTypeNative:
		return "Native"
	case PortTypeBluetooth:
		return "Bluetooth"
	case PortTypeVirtual:
		return "Virtual"
	default:
		return "Unknown"
	}
}

var (
	bluetoothPattern = map[string]*regexp.Regexp{
		"windows": regexp.MustCompile(`(?i)bluetooth|bth`),
		"linux":   regexp.MustCompile(`^/dev/rfcomm`),
		"darwin":  regexp.MustCompile(`^/dev/.*Bluetooth`),
	}
	virtualPattern = regexp.MustCompile(`^/dev/(pts/|pty|tnt)`)
)

// PortInfo describes one serial port found on the host
type PortInfo struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Vendor       string   `json:"vendor,omitempty"`
	Product      string   `json:"product,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	VID          string   `json:"vid,omitempty"`
	PID          string   `json:"pid,omitempty"`
	PortType     PortType `json:"-"`
	IsOpen       bool     `json:"is_open"`
	SessionID    string   `json:"session_id,omitempty"`
}

func portInfoFrom(d *enumerator.PortDetails, goos string) PortInfo {
	info := PortInfo{
		Name:         d.Name,
		Product:      d.Product,
		SerialNumber: d.SerialNumber,
		VID:          d.VID,
		PID:          d.PID,
		PortType:     classify(d.Name, d.IsUSB, goos),
	}
	if v, ok := controllerVendors[strings.ToUpper(d.VID)]; ok {
		info.Vendor = v.name
	}

	switch {
	case d.Product != "":
		info.Description = d.Product
	case info.Vendor != "":
		info.Description = info.Vendor + " Serial Device"
	case d.IsUSB:
		info.Description = "USB Serial Device"
	default:
		info.Description = "Serial Port"
	}
	return info
}

func classify(name string, isUSB bool, goos string) PortType {
	if isUSB {
		return PortTypeUSB
	}
	if re, ok := bluetoothPattern[goos]; ok && re.MatchString(name) {
		return PortTypeBluetooth
	}
	if goos == "linux" && virtualPattern.MatchString(name) {
		return PortTypeVirtual
	}
	return PortTypeNative
}

// IsController reports whether the port looks like a microcontroller board
func (p PortInfo) IsController() bool {
	if p.PortType != PortTypeUSB {
		return false
	}
	_, ok := controllerVendors[strings.ToUpper(p.VID)]
	return ok
}

// Detect picks the most likely controller port: known board vendors first,
// then by port name
func Detect(ports []PortInfo) (PortInfo, error) {
	var (
		best  PortInfo
		found bool
	)
	for _, p := range ports {
		if !p.IsController() {
			continue
		}
		if !found || controllerVendors[strings.ToUpper(p.VID)].rank < controllerVendors[strings.ToUpper(best.VID)].rank {
			best, found = p, true
		}
	}
	if !found {
		return PortInfo{}, ErrNoController
	}
	return best, nil
}

// Scanner enumerates serial ports, skipping names that match an exclude
// pattern, and remembers which ports this process holds open
type Scanner struct {
	list    func() ([]*enumerator.PortDetails, error)
	exclude []*regexp.Regexp

	mu     sync.RWMutex
	active map[string]string // port name -> transport session ID
}

// NewScanner compiles the exclude patterns and returns a scanner backed by
// the OS port enumerator
func NewScanner(excludePatterns []string) (*Scanner, error) {
	s := &Scanner{
		list:   enumerator.GetDetailedPortsList,
		active: make(map[string]string),
	}

	for _, pattern := range excludePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: exclude pattern %q: %w", ErrInvalidConfig, pattern, err)
		}
		s.exclude = append(s.exclude, re)
	}
	return s, nil
}

// Scan returns the ports currently present, sorted by name
func (s *Scanner) Scan() ([]PortInfo, error) {
	details, err := s.list()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if s.isExcluded(d.Name) {
			continue
		}
		info := portInfoFrom(d, runtime.GOOS)
		if id, ok := s.active[d.Name]; ok {
			info.IsOpen, info.SessionID = true, id
		}
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// SetActive records that this process holds portName open under sessionID.
// An empty sessionID clears the record.
func (s *Scanner) SetActive(portName, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == "" {
		delete(s.active, portName)
		return
	}
	s.active[portName] = sessionID
}

func (s *Scanner) isExcluded(name string) bool {
	for _, re := range s.exclude {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Resolve turns a configured device name into a port name, scanning for the
// controller when device is AutoDevice
func (s *Scanner) Resolve(device string) (string, error) {
	if device != "" && device != AutoDevice {
		return device, nil
	}

	ports, err := s.Scan()
	if err != nil {
		return "", fmt.Errorf("scan ports: %w", err)
	}
	p, err := Detect(ports)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// Watch rescans every interval until ctx is done and calls onChange whenever
// the set of ports or their open state differs from the previous scan
func (s *Scanner) Watch(ctx context.Context, interval time.Duration, onChange func([]PortInfo)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last, _ := s.Scan()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ports, err := s.Scan()
			if err != nil {
				continue
			}
			if !samePorts(last, ports) {
				last = ports
				onChange(ports)
			}
		}
	}
}

func samePorts(a, b []PortInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].IsOpen != b[i].IsOpen {
			return false
		}
	}
	return true
}
