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

// Package game keeps the game state driven by controller events: attack and
// ship counters, the 8x8 board and the game timer.
package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/Shoaibashk/BattleLink/internal/protocol"
)

// BoardSize is the width and height of the board
const BoardSize = 8

// Phase is the stage the game is in
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlaying
	PhaseWon
	PhaseLost
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseWon:
		return "won"
	case PhaseLost:
		return "lost"
	default:
		return "idle"
	}
}

// Cell is the content of one board cell
type Cell int

const (
	CellEmpty Cell = iota
	CellMiss
	CellHit
	CellKill
	CellReveal
)

// String returns the cell name
func (c Cell) String() string {
	switch c {
	case CellMiss:
		return "miss"
	case CellHit:
		return "hit"
	case CellKill:
		return "kill"
	case CellReveal:
		return "reveal"
	default:
		return "empty"
	}
}

func cellFor(m protocol.Mark) Cell {
	switch m {
	case protocol.MarkMiss:
		return CellMiss
	case protocol.MarkHit:
		return CellHit
	case protocol.MarkKill:
		return CellKill
	case protocol.MarkReveal:
		return CellReveal
	}
	return CellEmpty
}

// Board is indexed [y][x]
type Board [BoardSize][BoardSize]Cell

// Snapshot is a point-in-time copy of the game state
type Snapshot struct {
	Phase          Phase
	TotalAttacks   int
	TotalShips     int
	AttacksLeft    int
	ShipsDestroyed int
	Elapsed        time.Duration
	TimerRunning   bool
	Board          Board
}

// State implements bridge.Handler. Callbacks come from the dispatching
// goroutine; Snapshot may be called from anywhere.
type State struct {
	mu  sync.RWMutex
	now func() time.Time

	phase          Phase
	totalAttacks   int
	totalShips     int
	attacksLeft    int
	shipsDestroyed int
	board          Board

	timerRunning bool
	timerStart   time.Time
	elapsed      time.Duration
}

// NewState creates an idle game
func NewState() *State {
	return &State{now: time.Now}
}

// SetClock replaces the time source. Tests only.
func (s *State) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// OnGameStart initializes counters and restarts the timer
func (s *State) OnGameStart(totalAttacks, totalShips int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = PhasePlaying
	s.totalAttacks = totalAttacks
	s.totalShips = totalShips
	s.attacksLeft = totalAttacks
	s.shipsDestroyed = 0
	s.startTimerLocked()
}

// OnAttack consumes one attack. The counter does not go below zero.
func (s *State) OnAttack() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attacksLeft--
	if s.attacksLeft < 0 {
		s.attacksLeft = 0
	}
}

// OnShipDestroyed counts a sunk ship
func (s *State) OnShipDestroyed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipsDestroyed++
}

// OnWin ends the game and stops the timer
func (s *State) OnWin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseWon
	s.stopTimerLocked()
}

// OnLose ends the game and stops the timer
func (s *State) OnLose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseLost
	s.stopTimerLocked()
}

// OnCellMarked updates one cell. Coordinates outside the board are ignored.
func (s *State) OnCellMarked(x, y int, mark protocol.Mark) {
	if x < 0 || x >= BoardSize || y < 0 || y >= BoardSize {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.board[y][x] = cellFor(mark)
}

// OnBoardReset clears every cell
func (s *State) OnBoardReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = Board{}
}

// StartTimer restarts the game timer. It is used when the operator starts a
// game, before the controller has answered with the handshake.
func (s *State) StartTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTimerLocked()
}

// Reset returns to the idle state and stops the timer
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = PhaseIdle
	s.totalAttacks, s.totalShips = 0, 0
	s.attacksLeft, s.shipsDestroyed = 0, 0
	s.board = Board{}
	s.timerRunning = false
	s.elapsed = 0
}

func (s *State) startTimerLocked() {
	s.elapsed = 0
	s.timerStart = s.now()
	s.timerRunning = true
}

func (s *State) stopTimerLocked() {
	if !s.timerRunning {
		return
	}
	s.elapsed = s.now().Sub(s.timerStart)
	s.timerRunning = false
}

// Snapshot returns a copy of the current state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	elapsed := s.elapsed
	if s.timerRunning {
		elapsed = s.now().Sub(s.timerStart)
	}

	return Snapshot{
		Phase:          s.phase,
		TotalAttacks:   s.totalAttacks,
		TotalShips:     s.totalShips,
		AttacksLeft:    s.attacksLeft,
		ShipsDestroyed: s.shipsDestroyed,
		Elapsed:        elapsed,
		TimerRunning:   s.timerRunning,
		Board:          s.board,
	}
}

// FormatElapsed renders a duration as MM:SS
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
