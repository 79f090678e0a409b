package game

import (
	"testing"
	"time"

	"github.com/Shoaibashk/BattleLink/internal/protocol"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestState() (*State, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewState()
	s.SetClock(clock.now)
	return s, clock
}

func TestGameFlow(t *testing.T) {
	s, clock := newTestState()

	s.OnGameStart(10, 3)
	s.OnAttack()
	s.OnAttack()
	s.OnShipDestroyed()
	clock.t = clock.t.Add(75 * time.Second)

	snap := s.Snapshot()
	if snap.Phase != PhasePlaying {
		t.Errorf("expected playing, got=%s", snap.Phase)
	}
	if snap.TotalAttacks != 10 || snap.TotalShips != 3 {
		t.Errorf("expected totals 10/3, got=%d/%d", snap.TotalAttacks, snap.TotalShips)
	}
	if snap.AttacksLeft != 8 {
		t.Errorf("expected 8 attacks left, got=%d", snap.AttacksLeft)
	}
	if snap.ShipsDestroyed != 1 {
		t.Errorf("expected 1 ship destroyed, got=%d", snap.ShipsDestroyed)
	}
	if got := FormatElapsed(snap.Elapsed); got != "01:15" {
		t.Errorf("expected 01:15, got=%s", got)
	}

	s.OnWin()
	clock.t = clock.t.Add(time.Hour)
	snap = s.Snapshot()
	if snap.Phase != PhaseWon || snap.TimerRunning {
		t.Errorf("expected won with timer stopped, got=%s running=%v", snap.Phase, snap.TimerRunning)
	}
	if snap.Elapsed != 75*time.Second {
		t.Errorf("expected timer frozen at 75s, got=%v", snap.Elapsed)
	}
}

func TestAttacksLeftNeverNegative(t *testing.T) {
	s, _ := newTestState()
	s.OnGameStart(1, 1)
	s.OnAttack()
	s.OnAttack()

	if left := s.Snapshot().AttacksLeft; left != 0 {
		t.Errorf("expected 0 attacks left, got=%d", left)
	}
}

func TestBoardUpdatesAndRangeChecks(t *testing.T) {
	s, _ := newTestState()

	s.OnCellMarked(2, 5, protocol.MarkHit)
	s.OnCellMarked(7, 7, protocol.MarkKill)
	s.OnCellMarked(8, 0, protocol.MarkMiss)
	s.OnCellMarked(-1, 3, protocol.MarkMiss)
	s.OnCellMarked(0, 99, protocol.MarkReveal)

	board := s.Snapshot().Board
	if board[5][2] != CellHit {
		t.Errorf("expected hit at (2,5), got=%s", board[5][2])
	}
	if board[7][7] != CellKill {
		t.Errorf("expected kill at (7,7), got=%s", board[7][7])
	}

	marked := 0
	for y := range board {
		for x := range board[y] {
			if board[y][x] != CellEmpty {
				marked++
			}
		}
	}
	if marked != 2 {
		t.Errorf("expected 2 marked cells, got=%d", marked)
	}

	s.OnBoardReset()
	if s.Snapshot().Board != (Board{}) {
		t.Error("expected empty board after reset")
	}
}

func TestLoseAndReset(t *testing.T) {
	s, _ := newTestState()
	s.StartTimer()
	if !s.Snapshot().TimerRunning {
		t.Fatal("expected timer to run after StartTimer")
	}

	s.OnLose()
	if snap := s.Snapshot(); snap.Phase != PhaseLost || snap.TimerRunning {
		t.Errorf("expected lost with timer stopped, got=%s running=%v", snap.Phase, snap.TimerRunning)
	}

	s.OnCellMarked(1, 1, protocol.MarkMiss)
	s.Reset()
	snap := s.Snapshot()
	if snap.Phase != PhaseIdle || snap.Board != (Board{}) || snap.Elapsed != 0 {
		t.Errorf("expected idle state after reset, got %+v", snap)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:59"},
		{61500 * time.Millisecond, "01:01"},
		{100 * time.Minute, "100:00"},
		{-time.Second, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Errorf("%v: expected %s, got=%s", tt.d, tt.want, got)
		}
	}
}
