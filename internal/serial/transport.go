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

package serial

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.bug.st/serial"
)

// Parity represents the parity setting
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// ParseParity converts a config string ("none", "odd", ...) to a Parity
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ParityNone, nil
	case "odd":
		return ParityOdd, nil
	case "even":
		return ParityEven, nil
	case "mark":
		return ParityMark, nil
	case "space":
		return ParitySpace, nil
	}
	return ParityNone, fmt.Errorf("%w: unknown parity %q", ErrInvalidConfig, s)
}

// StopBits represents the stop bits setting
type StopBits int

const (
	StopBits1 StopBits = iota
	StopBits1Half
	StopBits2
)

// ParseStopBits converts the numeric stop bit count used in config files.
// 15 stands for 1.5 stop bits.
func ParseStopBits(n int) (StopBits, error) {
	switch n {
	case 0, 1:
		return StopBits1, nil
	case 15:
		return StopBits1Half, nil
	case 2:
		return StopBits2, nil
	}
	return StopBits1, fmt.Errorf("%w: unsupported stop bits %d", ErrInvalidConfig, n)
}

// PortConfig represents serial port configuration
type PortConfig struct {
	BaudRate      int
	DataBits      int
	StopBits      StopBits
	Parity        Parity
	ReadTimeoutMs int
	MaxLineLength int
}

// DefaultConfig returns the settings the controller firmware uses
func DefaultConfig() PortConfig {
	return PortConfig{
		BaudRate:      9600,
		DataBits:      8,
		StopBits:      StopBits1,
		Parity:        ParityNone,
		ReadTimeoutMs: 500,
		MaxLineLength: 4096,
	}
}

// Validate checks if the configuration is valid
func (c PortConfig) Validate() error {
	if c.BaudRate < 1 {
		return fmt.Errorf("%w: baud rate %d", ErrInvalidConfig, c.BaudRate)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("%w: data bits %d", ErrInvalidConfig, c.DataBits)
	}
	if c.ReadTimeoutMs < 1 {
		return fmt.Errorf("%w: read timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// ReadTimeout returns the per-read timeout as a duration
func (c PortConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}

// toSerialMode converts PortConfig to serial.Mode
func (c PortConfig) toSerialMode() *serial.Mode {
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
	}

	switch c.StopBits {
	case StopBits1:
		mode.StopBits = serial.OneStopBit
	case StopBits1Half:
		mode.StopBits = serial.OnePointFiveStopBits
	case StopBits2:
		mode.StopBits = serial.TwoStopBits
	}

	switch c.Parity {
	case ParityNone:
		mode.Parity = serial.NoParity
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityMark:
		mode.Parity = serial.MarkParity
	case ParitySpace:
		mode.Parity = serial.SpaceParity
	}

	return mode
}

// Port is the subset of serial.Port the transport relies on
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// PortStatistics contains statistics about port usage
type PortStatistics struct {
	BytesSent     uint64
	BytesReceived uint64
	LinesSent     uint64
	LinesReceived uint64
	Errors        uint64
	OpenedAt      time.Time
	LastActivity  time.Time
}

// Transport is a line-oriented, full-duplex wrapper over one serial port.
// ReadLine is meant for a single reader goroutine; WriteLine may be called from
// any goroutine and never waits on an in-flight read.
type Transport struct {
	ID       string
	PortName string
	Config   PortConfig

	port    Port
	closed  atomic.Bool
	writeMu sync.Mutex

	// owned by the reading goroutine
	buf     []byte
	pending []byte

	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64
	linesSent     atomic.Uint64
	linesReceived atomic.Uint64
	errors        atomic.Uint64
	openedAt      time.Time
	lastActivity  atomic.Int64
}

// Open opens a serial device and applies the configured read timeout
func Open(portName string, config PortConfig) (*Transport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	port, err := serial.Open(portName, config.toSerialMode())
	if err != nil {
		var perr *serial.PortError
		if errors.As(err, &perr) && perr.Code() == serial.PortNotFound {
			return nil, fmt.Errorf("%w %s: %w", ErrOpenFailed, portName, ErrPortNotFound)
		}
		return nil, fmt.Errorf("%w %s: %w", ErrOpenFailed, portName, err)
	}

	if err := port.SetReadTimeout(config.ReadTimeout()); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w %s: set read timeout: %w", ErrOpenFailed, portName, err)
	}

	return NewTransport(portName, port, config), nil
}

// NewTransport wraps an already opened port
func NewTransport(portName string, port Port, config PortConfig) *Transport {
	if config.MaxLineLength <= 0 {
		config.MaxLineLength = DefaultConfig().MaxLineLength
	}

	t := &Transport{
		ID:       uuid.New().String(),
		PortName: portName,
		Config:   config,
		port:     port,
		buf:      make([]byte, 256),
		openedAt: time.Now(),
	}
	t.touch()
	return t
}

// ReadLine returns the next line without its terminator. It returns
// ErrReadTimeout when no complete line arrived within the read timeout; bytes
// of a partial line are kept for the next call. The whole call, not each
// port read, is bounded by the timeout.
func (t *Transport) ReadLine() (string, error) {
	if t.closed.Load() {
		return "", ErrPortClosed
	}

	deadline := time.Now().Add(t.Config.ReadTimeout())
	for {
		if line, ok := t.takeLine(); ok {
			return line, nil
		}

		remaining := time.Until(deadline)
		if remaining < time.Millisecond {
			return "", ErrReadTimeout
		}
		if err := t.port.SetReadTimeout(remaining); err != nil {
			t.errors.Add(1)
			return "", fmt.Errorf("%w: set read timeout: %w", ErrReadFailed, err)
		}

		n, err := t.port.Read(t.buf)
		if n > 0 {
			t.pending = append(t.pending, t.buf[:n]...)
			t.bytesReceived.Add(uint64(n))
			t.touch()
		}
		if err != nil {
			if t.closed.Load() {
				return "", ErrPortClosed
			}
			t.errors.Add(1)
			return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
		}
		if n == 0 {
			if line, ok := t.takeLine(); ok {
				return line, nil
			}
			return "", ErrReadTimeout
		}
	}
}

// takeLine pops one complete line from the pending buffer. An overlong
// partial line is returned as-is.
func (t *Transport) takeLine() (string, bool) {
	i := bytes.IndexByte(t.pending, '\n')
	if i < 0 {
		if len(t.pending) < t.Config.MaxLineLength {
			return "", false
		}
		i = len(t.pending)
	}

	line := strings.TrimRight(string(t.pending[:i]), "\r\n")
	if i < len(t.pending) {
		i++
	}
	t.pending = t.pending[i:]
	t.linesReceived.Add(1)
	return line, true
}

// WriteLine writes text followed by a newline
func (t *Transport) WriteLine(text string) error {
	if t.closed.Load() {
		return ErrPortClosed
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	n, err := t.port.Write([]byte(text))
	t.bytesSent.Add(uint64(n))
	if err != nil {
		t.errors.Add(1)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	t.linesSent.Add(1)
	t.touch()
	return nil
}

// Close closes the port. Calling it more than once is a no-op.
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	return t.port.Close()
}

// Closed reports whether Close has been called
func (t *Transport) Closed() bool {
	return t.closed.Load()
}

// Stats returns a snapshot of the port counters
func (t *Transport) Stats() PortStatistics {
	return PortStatistics{
		BytesSent:     t.bytesSent.Load(),
		BytesReceived: t.bytesReceived.Load(),
		LinesSent:     t.linesSent.Load(),
		LinesReceived: t.linesReceived.Load(),
		Errors:        t.errors.Load(),
		OpenedAt:      t.openedAt,
		LastActivity:  time.Unix(0, t.lastActivity.Load()),
	}
}

func (t *Transport) touch() {
	t.lastActivity.Store(time.Now().UnixNano())
}
