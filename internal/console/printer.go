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

// Package console prints controller events and the board for an operator at
// a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/Shoaibashk/BattleLink/internal/bridge"
	"github.com/Shoaibashk/BattleLink/internal/game"
	"github.com/Shoaibashk/BattleLink/internal/protocol"
)

var (
	red     = color.New(color.FgRed).SprintfFunc()
	green   = color.New(color.FgGreen).SprintfFunc()
	blue    = color.New(color.FgHiBlue).SprintfFunc()
	magenta = color.New(color.FgMagenta).SprintfFunc()
	yellow  = color.New(color.FgYellow).SprintfFunc()
	faint   = color.New(color.Faint).SprintfFunc()
	bold    = color.New(color.Bold).SprintfFunc()
)

// Snapshotter provides the state rendered by Board and Status
type Snapshotter interface {
	Snapshot() game.Snapshot
}

// Printer writes one line per event. It is safe for use from the ticking
// goroutine and the input goroutine at the same time.
type Printer struct {
	mu   sync.Mutex
	out  io.Writer
	game Snapshotter
}

var (
	_ bridge.Handler             = (*Printer)(nil)
	_ bridge.UnrecognizedHandler = (*Printer)(nil)
)

// NewPrinter creates a printer writing to out. g may be nil, in which case
// Board and Status print nothing.
func NewPrinter(out io.Writer, g Snapshotter) *Printer {
	return &Printer{out: out, game: g}
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) OnGameStart(totalAttacks, totalShips int) {
	p.printf("%s %d attacks, %d ships\n", bold("game started:"), totalAttacks, totalShips)
}

func (p *Printer) OnAttack() {
	p.printf("attack used\n")
}

func (p *Printer) OnShipDestroyed() {
	p.printf("%s\n", blue("ship destroyed"))
}

func (p *Printer) OnWin() {
	p.printf("%s\n", green("*** YOU WIN ***"))
}

func (p *Printer) OnLose() {
	p.printf("%s\n", red("*** GAME OVER ***"))
}

func (p *Printer) OnCellMarked(x, y int, mark protocol.Mark) {
	p.printf("(%d,%d) %s\n", x, y, colorMark(mark))
}

func (p *Printer) OnBoardReset() {
	p.printf("%s\n", faint("board cleared"))
}

func (p *Printer) OnUnrecognized(raw string) {
	p.printf("%s %q\n", yellow("unknown message:"), raw)
}

func colorMark(m protocol.Mark) string {
	switch m {
	case protocol.MarkMiss:
		return red("%s", m)
	case protocol.MarkHit:
		return green("%s", m)
	case protocol.MarkKill:
		return blue("%s", m)
	case protocol.MarkReveal:
		return magenta("%s", m)
	}
	return m.String()
}

func colorCell(c game.Cell) string {
	switch c {
	case game.CellMiss:
		return red("o")
	case game.CellHit:
		return green("x")
	case game.CellKill:
		return blue("#")
	case game.CellReveal:
		return magenta("*")
	}
	return faint(".")
}

// Board prints the 8x8 board with column and row indices
func (p *Printer) Board() {
	if p.game == nil {
		return
	}
	snap := p.game.Snapshot()

	var b strings.Builder
	b.WriteString("  ")
	for x := 0; x < game.BoardSize; x++ {
		fmt.Fprintf(&b, " %d", x)
	}
	b.WriteByte('\n')
	for y := range snap.Board {
		fmt.Fprintf(&b, "%d ", y)
		for x := range snap.Board[y] {
			b.WriteString(" " + colorCell(snap.Board[y][x]))
		}
		b.WriteByte('\n')
	}

	p.printf("%s", b.String())
}

// Status prints the counters and timer on one line
func (p *Printer) Status() {
	if p.game == nil {
		return
	}
	snap := p.game.Snapshot()
	p.printf("%s | attacks %d/%d | ships destroyed %d/%d | %s\n",
		snap.Phase, snap.AttacksLeft, snap.TotalAttacks,
		snap.ShipsDestroyed, snap.TotalShips, game.FormatElapsed(snap.Elapsed))
}

// Info prints a plain message
func (p *Printer) Info(format string, args ...any) {
	p.printf(format+"\n", args...)
}

// Error prints a highlighted error message
func (p *Printer) Error(err error) {
	p.printf("%s %v\n", red("error:"), err)
}
