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

// Package protocol implements the line protocol spoken by the game controller:
// decoding of inbound lines into typed events and construction of outbound commands.
package protocol

import "fmt"

// Mark represents the state a board cell was marked with
type Mark int

const (
	MarkMiss Mark = iota
	MarkHit
	MarkKill
	MarkReveal
)

// String returns the wire keyword of the mark
func (m Mark) String() string {
	switch m {
	case MarkMiss:
		return "MISS"
	case MarkHit:
		return "HIT"
	case MarkKill:
		return "KILL"
	case MarkReveal:
		return "REVEAL"
	default:
		return fmt.Sprintf("Mark(%d)", int(m))
	}
}

// ParseMark converts a wire keyword into a Mark
func ParseMark(keyword string) (Mark, bool) {
	switch keyword {
	case "MISS":
		return MarkMiss, true
	case "HIT":
		return MarkHit, true
	case "KILL":
		return MarkKill, true
	case "REVEAL":
		return MarkReveal, true
	}
	return 0, false
}

// Event is a decoded controller message. The set of implementations is closed.
type Event interface {
	// Kind returns a stable snake_case name for the event
	Kind() string
	isEvent()
}

// GameStart is synthesized once both halves of the handshake have arrived
type GameStart struct {
	TotalAttacks int
	TotalShips   int
}

// AttackConsumed reports that the player used one attack
type AttackConsumed struct{}

// ShipDestroyed reports that a ship was sunk
type ShipDestroyed struct{}

// Win reports the end of the game in the player's favour
type Win struct{}

// Lose reports the end of the game against the player
type Lose struct{}

// CellMarked reports a board cell update. Coordinates are passed through unchecked.
type CellMarked struct {
	X    int
	Y    int
	Mark Mark
}

// BoardReset clears every cell of the board
type BoardReset struct{}

// Unrecognized carries a line that matched no rule. It is diagnostic only.
type Unrecognized struct {
	Raw string
}

func (GameStart) Kind() string      { return "game_start" }
func (AttackConsumed) Kind() string { return "attack" }
func (ShipDestroyed) Kind() string  { return "ship_destroyed" }
func (Win) Kind() string            { return "win" }
func (Lose) Kind() string           { return "lose" }
func (CellMarked) Kind() string     { return "cell_marked" }
func (BoardReset) Kind() string     { return "board_reset" }
func (Unrecognized) Kind() string   { return "unrecognized" }

func (GameStart) isEvent()      {}
func (AttackConsumed) isEvent() {}
func (ShipDestroyed) isEvent()  {}
func (Win) isEvent()            {}
func (Lose) isEvent()           {}
func (CellMarked) isEvent()     {}
func (BoardReset) isEvent()     {}
func (Unrecognized) isEvent()   {}
