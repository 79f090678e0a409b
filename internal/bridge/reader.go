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

package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shoaibashk/BattleLink/internal/serial"
)

// LineSource is anything that yields lines with a bounded wait
type LineSource interface {
	ReadLine() (string, error)
}

// ReaderState is the state of the background reader
type ReaderState int32

const (
	ReaderStopped ReaderState = iota
	ReaderRunning
)

// String returns the state name
func (s ReaderState) String() string {
	if s == ReaderRunning {
		return "running"
	}
	return "stopped"
}

// Reader continuously reads lines from a source on its own goroutine and
// pushes them onto a LineQueue. It never decodes anything.
type Reader struct {
	src     LineSource
	queue   *LineQueue
	backoff time.Duration
	log     zerolog.Logger

	state    atomic.Int32
	sequence atomic.Uint64
	started  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewReader creates a reader. backoff is how long the loop waits after a read
// error before trying again; it should match the read timeout so a source that
// fails instantly cannot make the loop spin.
func NewReader(src LineSource, queue *LineQueue, backoff time.Duration, logger zerolog.Logger) *Reader {
	return &Reader{
		src:      src,
		queue:    queue,
		backoff:  backoff,
		log:      logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the read loop. A reader runs at most once.
func (r *Reader) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	r.state.Store(int32(ReaderRunning))
	go r.readLoop(ctx)
}

// Stop asks the loop to exit and waits until it has. The loop notices the
// request within one read timeout.
func (r *Reader) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	if r.started.Load() {
		<-r.done
	}
	r.state.Store(int32(ReaderStopped))
}

// State returns the current reader state
func (r *Reader) State() ReaderState {
	return ReaderState(r.state.Load())
}

// Done is closed once the read loop has exited
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

func (r *Reader) readLoop(ctx context.Context) {
	defer func() {
		r.state.Store(int32(ReaderStopped))
		close(r.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		default:
		}

		text, err := r.src.ReadLine()
		switch {
		case err == nil:
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			seq := r.sequence.Add(1)
			r.queue.Push(Line{Text: text, Seq: seq, ReceivedAt: time.Now()})
			r.log.Trace().Uint64("seq", seq).Str("line", text).Msg("line received")

		case errors.Is(err, serial.ErrReadTimeout):
			// nothing arrived within the timeout

		default:
			r.log.Warn().Err(err).Msg("error reading from port")
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case <-time.After(r.backoff):
			}
		}
	}
}
