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

import "github.com/Shoaibashk/BattleLink/internal/protocol"

// Handler receives decoded controller events. Callbacks run synchronously on
// the goroutine that calls Bridge.Tick, in the order lines were received.
type Handler interface {
	OnGameStart(totalAttacks, totalShips int)
	OnAttack()
	OnShipDestroyed()
	OnWin()
	OnLose()
	OnCellMarked(x, y int, mark protocol.Mark)
	OnBoardReset()
}

// UnrecognizedHandler is implemented by handlers that want to see lines no
// rule matched
type UnrecognizedHandler interface {
	OnUnrecognized(raw string)
}

// Apply invokes the callback matching ev
func Apply(h Handler, ev protocol.Event) {
	switch e := ev.(type) {
	case protocol.GameStart:
		h.OnGameStart(e.TotalAttacks, e.TotalShips)
	case protocol.AttackConsumed:
		h.OnAttack()
	case protocol.ShipDestroyed:
		h.OnShipDestroyed()
	case protocol.Win:
		h.OnWin()
	case protocol.Lose:
		h.OnLose()
	case protocol.CellMarked:
		h.OnCellMarked(e.X, e.Y, e.Mark)
	case protocol.BoardReset:
		h.OnBoardReset()
	case protocol.Unrecognized:
		if u, ok := h.(UnrecognizedHandler); ok {
			u.OnUnrecognized(e.Raw)
		}
	}
}

// MultiHandler fans every callback out to several handlers, in order
type MultiHandler []Handler

func (m MultiHandler) OnGameStart(totalAttacks, totalShips int) {
	for _, h := range m {
		h.OnGameStart(totalAttacks, totalShips)
	}
}

func (m MultiHandler) OnAttack() {
	for _, h := range m {
		h.OnAttack()
	}
}

func (m MultiHandler) OnShipDestroyed() {
	for _, h := range m {
		h.OnShipDestroyed()
	}
}

func (m MultiHandler) OnWin() {
	for _, h := range m {
		h.OnWin()
	}
}

func (m MultiHandler) OnLose() {
	for _, h := range m {
		h.OnLose()
	}
}

func (m MultiHandler) OnCellMarked(x, y int, mark protocol.Mark) {
	for _, h := range m {
		h.OnCellMarked(x, y, mark)
	}
}

func (m MultiHandler) OnBoardReset() {
	for _, h := range m {
		h.OnBoardReset()
	}
}

func (m MultiHandler) OnUnrecognized(raw string) {
	for _, h := range m {
		if u, ok := h.(UnrecognizedHandler); ok {
			u.OnUnrecognized(raw)
		}
	}
}
