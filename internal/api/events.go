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

// Package api exposes a running bridge to remote clients over gRPC and
// WebSocket. Both surfaces share one JSON-friendly event encoding.
package api

import (
	"github.com/Shoaibashk/BattleLink/internal/game"
	"github.com/Shoaibashk/BattleLink/internal/protocol"
)

// EventToMap encodes ev as a flat map with a "type" key naming the event.
// Values are limited to strings, float64 and bool so the map converts to a
// protobuf Struct without loss.
func EventToMap(ev protocol.Event) map[string]any {
	m := map[string]any{"type": ev.Kind()}

	switch e := ev.(type) {
	case protocol.GameStart:
		m["total_attacks"] = float64(e.TotalAttacks)
		m["total_ships"] = float64(e.TotalShips)
	case protocol.CellMarked:
		m["x"] = float64(e.X)
		m["y"] = float64(e.Y)
		m["mark"] = e.Mark.String()
	case protocol.Unrecognized:
		m["raw"] = e.Raw
	}
	return m
}

// SnapshotToMap encodes a game snapshot. Rows of the board are strings of
// one character per cell, top row first.
func SnapshotToMap(snap game.Snapshot, connected bool) map[string]any {
	rows := make([]any, 0, game.BoardSize)
	for y := range snap.Board {
		row := make([]byte, 0, game.BoardSize)
		for x := range snap.Board[y] {
			row = append(row, cellChar(snap.Board[y][x]))
		}
		rows = append(rows, string(row))
	}

	return map[string]any{
		"connected":       connected,
		"phase":           snap.Phase.String(),
		"total_attacks":   float64(snap.TotalAttacks),
		"total_ships":     float64(snap.TotalShips),
		"attacks_left":    float64(snap.AttacksLeft),
		"ships_destroyed": float64(snap.ShipsDestroyed),
		"elapsed":         game.FormatElapsed(snap.Elapsed),
		"timer_running":   snap.TimerRunning,
		"board":           rows,
	}
}

func cellChar(c game.Cell) byte {
	switch c {
	case game.CellMiss:
		return 'o'
	case game.CellHit:
		return 'x'
	case game.CellKill:
		return '#'
	case game.CellReveal:
		return '*'
	}
	return '.'
}
