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

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Shoaibashk/BattleLink/internal/bridge"
	"github.com/Shoaibashk/BattleLink/internal/console"
	"github.com/Shoaibashk/BattleLink/internal/game"
	"github.com/Shoaibashk/BattleLink/internal/protocol"
)

const playHelp = `commands:
  start            start a game
  difficulty <n>   set the difficulty (rounded to a whole level)
  board            show the board
  status           show counters and timer
  reset            clear the local game state
  quit             leave
anything else is sent to the controller as typed`

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play from this terminal",
	Long: `Open the controller and play from the terminal.

Controller messages are printed as they arrive. Type commands on standard
input; "help" lists them.

Example:
  battlelink play
  battlelink play --device COM4`,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	addBridgeFlags(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	state := game.NewState()
	printer := console.NewPrinter(cmd.OutOrStdout(), state)

	b, _, err := newBridge(cfg, bridge.MultiHandler{state, printer}, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Open(ctx); err != nil {
		printer.Error(err)
		printer.Info("controller not connected, commands will be rejected")
	} else {
		printer.Info("connected to %s", b.PortName())
		if err := applyDifficulty(b, cfg.Game.Difficulty); err != nil {
			printer.Error(err)
		}
	}
	printer.Info(`type "help" for commands`)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx, cfg.TickInterval())
	})

	lines := readLines(cmd.InOrStdin())
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok || handleInput(line, b, state, printer) {
					stop()
					return nil
				}
			}
		}
	})

	return g.Wait()
}

// readLines feeds stdin lines to a channel. The goroutine blocks on the
// terminal and is left behind when the command returns.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

type commandSender interface {
	Send(cmd protocol.Command) error
}

// applyDifficulty sends the configured difficulty. Zero keeps the
// controller's own setting.
func applyDifficulty(b commandSender, level int) error {
	if level <= 0 {
		return nil
	}
	if err := b.Send(protocol.SetDifficulty(level)); err != nil {
		return fmt.Errorf("apply difficulty %d: %w", level, err)
	}
	return nil
}

// handleInput runs one operator line and reports whether the operator asked
// to quit
func handleInput(line string, b commandSender, state *game.State, p *console.Printer) bool {
	line = strings.TrimSpace(line)

	switch strings.ToLower(line) {
	case "":
		return false
	case "quit", "exit":
		return true
	case "help":
		p.Info("%s", playHelp)
		return false
	case "board":
		p.Board()
		return false
	case "status":
		p.Status()
		return false
	case "reset":
		state.Reset()
		p.Info("game state cleared")
		return false
	}

	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		p.Error(err)
		return false
	}
	if err := b.Send(cmd); err != nil {
		p.Error(fmt.Errorf("%s not sent: %w", cmd, err))
		return false
	}
	if cmd == protocol.CommandStart {
		state.StartTimer()
	}
	return false
}
