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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shoaibashk/BattleLink/internal/bridge"
	"github.com/Shoaibashk/BattleLink/internal/protocol"
)

var sendCmd = &cobra.Command{
	Use:   "send <command>",
	Short: "Send one command to the controller",
	Long: `Open the controller, send a single command and print whatever the
controller answers during the wait period.

Example:
  battlelink send start
  battlelink send difficulty 3
  battlelink send "SET DIFFICULTY=1" --wait 0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	addBridgeFlags(sendCmd)
	sendCmd.Flags().Duration("wait", 2*time.Second, "how long to print controller replies")
}

func runSend(cmd *cobra.Command, args []string) error {
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

	command, err := protocol.ParseCommand(strings.Join(args, " "))
	if err != nil {
		return err
	}

	printer := newReplyPrinter(cmd)
	b, _, err := newBridge(cfg, printer, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	wait, _ := cmd.Flags().GetDuration("wait")
	ctx, cancel := context.WithTimeout(cmd.Context(), wait)
	defer cancel()

	if err := b.Open(ctx); err != nil {
		return err
	}
	if err := b.Send(command); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %q to %s\n", command, b.PortName())

	if wait <= 0 {
		return nil
	}
	b.Run(ctx, cfg.TickInterval())
	b.Tick()
	return nil
}

func newReplyPrinter(cmd *cobra.Command) bridge.Handler {
	return &replyPrinter{cmd: cmd}
}

// replyPrinter prints events as plain protocol-level text
type replyPrinter struct {
	cmd *cobra.Command
}

func (r *replyPrinter) println(format string, args ...any) {
	fmt.Fprintf(r.cmd.OutOrStdout(), format+"\n", args...)
}

func (r *replyPrinter) OnGameStart(totalAttacks, totalShips int) {
	r.println("game_start total_attacks=%d total_ships=%d", totalAttacks, totalShips)
}
func (r *replyPrinter) OnAttack()        { r.println("attack") }
func (r *replyPrinter) OnShipDestroyed() { r.println("ship_destroyed") }
func (r *replyPrinter) OnWin()           { r.println("win") }
func (r *replyPrinter) OnLose()          { r.println("lose") }
func (r *replyPrinter) OnBoardReset()    { r.println("board_reset") }
func (r *replyPrinter) OnCellMarked(x, y int, mark protocol.Mark) {
	r.println("cell_marked x=%d y=%d mark=%s", x, y, mark)
}
func (r *replyPrinter) OnUnrecognized(raw string) { r.println("unrecognized %q", raw) }
