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

package protocol

import (
	"strconv"
	"strings"
)

// Inbound keywords
const (
	prefixTotalShips   = "TOTAL_SHIPS="
	prefixTotalAttacks = "TOTAL_ATTACKS="

	lineAttack        = "ATTACK"
	lineShipDestroyed = "SHIP_DESTROYED"
	lineWin           = "WIN"
	lineLose          = "LOSE"
	lineReset         = "RESET"
)

// cellPrefixes are matched with their trailing space, so a bare keyword is unrecognized
var cellPrefixes = []string{"MISS ", "HIT ", "KILL ", "REVEAL "}

// HandshakeState holds the halves of the game-start handshake received so far.
// The zero value has nothing pending.
type HandshakeState struct {
	ships      int
	attacks    int
	hasShips   bool
	hasAttacks bool
}

// Pending reports the values received so far and whether each one is present
func (hs *HandshakeState) Pending() (ships int, hasShips bool, attacks int, hasAttacks bool) {
	return hs.ships, hs.hasShips, hs.attacks, hs.hasAttacks
}

// Reset clears both halves
func (hs *HandshakeState) Reset() {
	*hs = HandshakeState{}
}

// complete emits GameStart and clears the state once both halves are present
func (hs *HandshakeState) complete() Event {
	if !hs.hasShips || !hs.hasAttacks {
		return nil
	}
	ev := GameStart{TotalAttacks: hs.attacks, TotalShips: hs.ships}
	hs.Reset()
	return ev
}

// Decode maps a single trimmed line to at most one event, consulting and
// updating the handshake state. A nil result means the line produced no event,
// either because a handshake half is still missing or because its payload was
// malformed.
func Decode(line string, hs *HandshakeState) Event {
	switch {
	case strings.HasPrefix(line, prefixTotalShips):
		n, ok := parseInt(line[len(prefixTotalShips):])
		if !ok {
			return nil
		}
		hs.ships, hs.hasShips = n, true
		return hs.complete()

	case strings.HasPrefix(line, prefixTotalAttacks):
		n, ok := parseInt(line[len(prefixTotalAttacks):])
		if !ok {
			return nil
		}
		hs.attacks, hs.hasAttacks = n, true
		return hs.complete()

	case line == lineAttack:
		return AttackConsumed{}
	case line == lineShipDestroyed:
		return ShipDestroyed{}
	case line == lineWin:
		return Win{}
	case line == lineLose:
		return Lose{}

	case hasCellPrefix(line):
		ev, ok := decodeCell(line)
		if !ok {
			return nil
		}
		return ev

	case line == lineReset:
		return BoardReset{}
	}

	return Unrecognized{Raw: line}
}

func hasCellPrefix(line string) bool {
	for _, p := range cellPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// decodeCell parses "<MARK> <x> <y>"; extra tokens are ignored
func decodeCell(line string) (CellMarked, bool) {
	parts := strings.Split(line, " ")
	if len(parts) < 3 {
		return CellMarked{}, false
	}

	mark, ok := ParseMark(parts[0])
	if !ok {
		return CellMarked{}, false
	}
	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return CellMarked{}, false
	}
	y, err := strconv.Atoi(parts[2])
	if err != nil {
		return CellMarked{}, false
	}

	return CellMarked{X: x, Y: y, Mark: mark}, true
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Decoder owns a HandshakeState for a single session
type Decoder struct {
	state HandshakeState
}

// Decode decodes one line against the decoder's handshake state
func (d *Decoder) Decode(line string) Event {
	return Decode(line, &d.state)
}

// Reset drops any pending handshake half
func (d *Decoder) Reset() {
	d.state.Reset()
}

// State returns a copy of the current handshake state
func (d *Decoder) State() HandshakeState {
	return d.state
}
