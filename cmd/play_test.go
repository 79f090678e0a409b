package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/Shoaibashk/BattleLink/config"
	"github.com/Shoaibashk/BattleLink/internal/bridge"
	"github.com/Shoaibashk/BattleLink/internal/console"
	"github.com/Shoaibashk/BattleLink/internal/game"
	"github.com/Shoaibashk/BattleLink/internal/protocol"
	"github.com/Shoaibashk/BattleLink/internal/serial"
)

type recordingSender struct {
	sent []protocol.Command
	err  error
}

func (r *recordingSender) Send(cmd protocol.Command) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, cmd)
	return nil
}

func TestHandleInput(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	state := game.NewState()
	p := console.NewPrinter(&out, state)
	s := &recordingSender{}

	for _, line := range []string{"", "difficulty 1.5", "start", "PING"} {
		if handleInput(line, s, state, p) {
			t.Fatalf("%q should not quit", line)
		}
	}

	want := []protocol.Command{"SET DIFFICULTY=2", protocol.CommandStart, "PING"}
	if len(s.sent) != len(want) {
		t.Fatalf("expected %v, got %v", want, s.sent)
	}
	for i := range want {
		if s.sent[i] != want[i] {
			t.Errorf("command %d: expected %s, got=%s", i, want[i], s.sent[i])
		}
	}
	if !state.Snapshot().TimerRunning {
		t.Error("expected start to run the timer")
	}

	if !handleInput(" QUIT ", s, state, p) {
		t.Error("expected quit to end the session")
	}
}

func TestHandleInputNotConnected(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	state := game.NewState()
	p := console.NewPrinter(&out, state)

	handleInput("start", &recordingSender{err: bridge.ErrNotConnected}, state, p)

	if !strings.Contains(out.String(), "START not sent: controller is not connected") {
		t.Errorf("unexpected output %q", out.String())
	}
	if state.Snapshot().TimerRunning {
		t.Error("timer must not start when the command was rejected")
	}
}

func TestPortConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Serial.Defaults.Parity = "even"
	cfg.Serial.Defaults.StopBits = 2

	pc, err := portConfig(cfg)
	if err != nil {
		t.Fatalf("portConfig failed: %v", err)
	}
	if pc.Parity != serial.ParityEven || pc.StopBits != serial.StopBits2 {
		t.Errorf("unexpected framing %+v", pc)
	}
	if pc.ReadTimeout().Milliseconds() != 500 {
		t.Errorf("expected 500ms read timeout, got=%v", pc.ReadTimeout())
	}

	cfg.Serial.Defaults.Parity = "sometimes"
	if _, err := portConfig(cfg); err == nil {
		t.Error("expected error for unknown parity")
	}
}

func TestApplyDifficulty(t *testing.T) {
	s := &recordingSender{}
	if err := applyDifficulty(s, 0); err != nil {
		t.Fatalf("expected no error for level 0, got %v", err)
	}
	if err := applyDifficulty(s, 3); err != nil {
		t.Fatalf("applyDifficulty failed: %v", err)
	}
	if len(s.sent) != 1 || s.sent[0] != "SET DIFFICULTY=3" {
		t.Errorf("expected only SET DIFFICULTY=3, got %v", s.sent)
	}

	err := applyDifficulty(&recordingSender{err: bridge.ErrNotConnected}, 2)
	if !errors.Is(err, bridge.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
