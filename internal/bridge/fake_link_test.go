package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shoaibashk/BattleLink/internal/protocol"
	"github.com/Shoaibashk/BattleLink/internal/serial"
)

const testTimeout = 20 * time.Millisecond

// fakeLink serves queued lines and reports ErrReadTimeout after testTimeout
type fakeLink struct {
	lines   chan string
	errs    chan error
	timeout time.Duration

	reading       atomic.Bool
	closedMidRead atomic.Bool
	closed        atomic.Bool

	mu     sync.Mutex
	writes []string
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		lines:   make(chan string, 64),
		errs:    make(chan error, 8),
		timeout: testTimeout,
	}
}

func (f *fakeLink) ReadLine() (string, error) {
	f.reading.Store(true)
	defer f.reading.Store(false)

	select {
	case err := <-f.errs:
		return "", err
	case line := <-f.lines:
		return line, nil
	case <-time.After(f.timeout):
		return "", serial.ErrReadTimeout
	}
}

func (f *fakeLink) WriteLine(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, text)
	return nil
}

func (f *fakeLink) Close() error {
	if f.reading.Load() {
		f.closedMidRead.Store(true)
	}
	f.closed.Store(true)
	return nil
}

func (f *fakeLink) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

// recorder is a Handler that records every callback as a string
type recorder struct {
	calls []string
}

func (r *recorder) OnGameStart(totalAttacks, totalShips int) {
	r.calls = append(r.calls, fmt.Sprintf("game_start %d %d", totalAttacks, totalShips))
}
func (r *recorder) OnAttack()        { r.calls = append(r.calls, "attack") }
func (r *recorder) OnShipDestroyed() { r.calls = append(r.calls, "ship_destroyed") }
func (r *recorder) OnWin()           { r.calls = append(r.calls, "win") }
func (r *recorder) OnLose()          { r.calls = append(r.calls, "lose") }
func (r *recorder) OnCellMarked(x, y int, mark protocol.Mark) {
	r.calls = append(r.calls, fmt.Sprintf("cell %d %d %s", x, y, mark))
}
func (r *recorder) OnBoardReset()             { r.calls = append(r.calls, "board_reset") }
func (r *recorder) OnUnrecognized(raw string) { r.calls = append(r.calls, "unrecognized "+raw) }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func testBridgeConfig() Config {
	cfg := Config{Device: "fake", Port: serial.DefaultConfig()}
	cfg.Port.ReadTimeoutMs = int(testTimeout / time.Millisecond)
	return cfg
}
