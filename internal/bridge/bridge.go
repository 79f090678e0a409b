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

// Package bridge connects the game controller's serial link to an in-process
// consumer. A background reader queues raw lines; the consumer drains and
// decodes them once per tick and receives events through a Handler. Commands
// travel the other way through Send.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shoaibashk/BattleLink/internal/protocol"
	"github.com/Shoaibashk/BattleLink/internal/serial"
)

// Common errors
var (
	ErrNotConnected = errors.New("controller is not connected")
	ErrClosed       = errors.New("bridge has been closed")
)

// State is the connection state of a Bridge
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateClosed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Link is a full-duplex line connection to the controller
type Link interface {
	LineSource
	WriteLine(text string) error
	Close() error
}

// Opener opens a Link to the named port
type Opener func(portName string, config serial.PortConfig) (Link, error)

// Resolver maps the configured device name to a port name
type Resolver func(device string) (string, error)

// Config holds the session-static bridge settings
type Config struct {
	Device string
	Port   serial.PortConfig
}

// Option customizes a Bridge
type Option func(*Bridge)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bridge) { b.log = logger }
}

// WithOpener replaces the function used to open the serial port
func WithOpener(open Opener) Option {
	return func(b *Bridge) { b.open = open }
}

// WithResolver sets how the configured device is turned into a port name.
// Without it the device is used verbatim.
func WithResolver(resolve Resolver) Option {
	return func(b *Bridge) { b.resolve = resolve }
}

// Bridge owns the serial link, the background reader and the decoding state
// for one session.
type Bridge struct {
	cfg     Config
	handler Handler
	log     zerolog.Logger
	open    Opener
	resolve Resolver

	mu       sync.RWMutex
	link     Link
	reader   *Reader
	portName string
	state    atomic.Int32

	queue *LineQueue

	// consumer side only
	decoder    protocol.Decoder
	resetState atomic.Bool
	dispatched atomic.Uint64
}

// New creates a disconnected bridge delivering events to h
func New(cfg Config, h Handler, opts ...Option) *Bridge {
	b := &Bridge{
		cfg:     cfg,
		handler: h,
		log:     zerolog.Nop(),
		open:    openSerial,
		resolve: func(device string) (string, error) { return device, nil },
		queue:   NewLineQueue(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func openSerial(portName string, config serial.PortConfig) (Link, error) {
	t, err := serial.Open(portName, config)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Open opens the serial port and starts the background reader. A failure is
// logged and returned; the bridge then stays disconnected and every Send is
// rejected. No reconnect is attempted.
func (b *Bridge) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.State() {
	case StateConnected:
		return nil
	case StateClosed:
		return ErrClosed
	}

	portName, err := b.resolve(b.cfg.Device)
	if err != nil {
		b.log.Error().Err(err).Str("device", b.cfg.Device).Msg("could not resolve controller port")
		return fmt.Errorf("resolve device %q: %w", b.cfg.Device, err)
	}

	link, err := b.open(portName, b.cfg.Port)
	if err != nil {
		b.log.Error().Err(err).Str("port", portName).Msg("could not open the port")
		return err
	}

	b.link = link
	b.portName = portName
	b.resetState.Store(true)
	b.reader = NewReader(link, b.queue, b.cfg.Port.ReadTimeout(), b.log.With().Str("port", portName).Logger())
	b.reader.Start(ctx)
	b.state.Store(int32(StateConnected))

	b.log.Info().Str("port", portName).Int("baud", b.cfg.Port.BaudRate).Msg("port opened")
	return nil
}

// Tick drains every queued line, decodes them in arrival order and invokes
// the handler for each resulting event. It never blocks waiting for input and
// returns the number of events dispatched. Tick must always be called from the
// same goroutine.
func (b *Bridge) Tick() int {
	if b.resetState.CompareAndSwap(true, false) {
		b.decoder.Reset()
	}

	lines := b.queue.Drain()
	n := 0
	for _, line := range lines {
		ev := b.decoder.Decode(line.Text)
		if ev == nil {
			b.log.Debug().Uint64("seq", line.Seq).Str("line", line.Text).Msg("line produced no event")
			continue
		}
		if u, ok := ev.(protocol.Unrecognized); ok {
			b.log.Warn().Uint64("seq", line.Seq).Str("line", u.Raw).Msg("unknown message from controller")
		}
		Apply(b.handler, ev)
		n++
	}

	b.dispatched.Add(uint64(n))
	return n
}

// Run calls Tick every interval until ctx is done
func (b *Bridge) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.Tick()
		}
	}
}

// Send writes a command to the controller. When the port is not open the
// command is dropped and ErrNotConnected is returned. Send may be called from
// any goroutine, concurrently with the reader.
func (b *Bridge) Send(cmd protocol.Command) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.State() != StateConnected {
		b.log.Warn().Str("command", cmd.String()).Msg("port not open, can't send")
		return ErrNotConnected
	}

	if err := b.link.WriteLine(cmd.String()); err != nil {
		b.log.Error().Err(err).Str("command", cmd.String()).Msg("failed to send command")
		return err
	}

	b.log.Debug().Str("command", cmd.String()).Msg("command sent")
	return nil
}

// Close stops the reader, waits for it to exit and only then closes the port.
// The bridge is marked closed before the join, so a concurrent Send fails
// with ErrNotConnected instead of waiting for the reader. It is safe to call
// more than once.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.State() == StateClosed {
		b.mu.Unlock()
		return nil
	}
	b.state.Store(int32(StateClosed))
	reader, link, portName := b.reader, b.link, b.portName
	b.mu.Unlock()

	if reader != nil {
		reader.Stop()
	}

	var err error
	if link != nil {
		err = link.Close()
		b.log.Info().Str("port", portName).Msg("port closed")
	}
	b.resetState.Store(true)
	return err
}

// State returns the connection state
func (b *Bridge) State() State {
	return State(b.state.Load())
}

// Connected reports whether the port is open
func (b *Bridge) Connected() bool {
	return b.State() == StateConnected
}

// PortName returns the port the bridge opened, if any
func (b *Bridge) PortName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.portName
}

// Pending returns the number of lines waiting for the next Tick
func (b *Bridge) Pending() int {
	return b.queue.Len()
}

// Dispatched returns the number of events delivered so far
func (b *Bridge) Dispatched() uint64 {
	return b.dispatched.Load()
}

// Stats returns transport counters when the link provides them
func (b *Bridge) Stats() (serial.PortStatistics, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.link.(interface{ Stats() serial.PortStatistics })
	if !ok {
		return serial.PortStatistics{}, false
	}
	return s.Stats(), true
}

// SessionID returns the transport session ID when the link provides one
func (b *Bridge) SessionID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if t, ok := b.link.(*serial.Transport); ok {
		return t.ID
	}
	return ""
}
