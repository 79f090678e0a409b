/*
BattleLink gRPC Test Client

Exercises a running "battlelink serve" agent:
  1. Ping
  2. Print the current game state
  3. Send a command (optional)
  4. Stream events for a while

Usage:
  grpcclient -addr localhost:50061 -send start -watch 30
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Shoaibashk/BattleLink/internal/api"
)

func main() {
	addr := flag.String("addr", "localhost:50061", "BattleLink gRPC server address")
	send := flag.String("send", "", `command to send, e.g. "start" or "difficulty 2"`)
	watchSec := flag.Int("watch", 10, "seconds to stream events (0 to skip)")
	flag.Parse()

	fmt.Printf("BattleLink gRPC test client -> %s\n\n", *addr)

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect: %v (is 'battlelink serve' running?)", err)
	}
	defer conn.Close()

	client := api.NewClient(conn)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("--- Ping ---")
	pong, err := client.Ping(ctx, "hello")
	if err != nil {
		log.Fatalf("Ping failed: %v", err)
	}
	fmt.Printf("%s\n\n", pong)

	fmt.Println("--- State ---")
	state, err := client.GetState(ctx)
	if err != nil {
		log.Fatalf("GetState failed: %v", err)
	}
	printState(state)
	fmt.Println()

	if *send != "" {
		fmt.Println("--- Send ---")
		if err := client.SendCommand(ctx, *send); err != nil {
			log.Printf("SendCommand failed: %v", err)
		} else {
			fmt.Printf("sent %q\n", *send)
		}
		fmt.Println()
	}

	if *watchSec <= 0 {
		return
	}

	fmt.Printf("--- Events (for %d seconds, Ctrl+C to stop) ---\n", *watchSec)
	watchCtx, cancel := context.WithTimeout(ctx, time.Duration(*watchSec)*time.Second)
	defer cancel()

	stream, err := client.StreamEvents(watchCtx)
	if err != nil {
		log.Fatalf("StreamEvents failed: %v", err)
	}

	count := 0
	for {
		ev, err := stream.Recv()
		if err == io.EOF || watchCtx.Err() != nil {
			break
		}
		if err != nil {
			log.Printf("stream error: %v", err)
			break
		}
		count++
		fmt.Printf("%s  %v\n", time.Now().Format("15:04:05.000"), ev.AsMap())
	}
	fmt.Printf("\n%d event(s) received\n", count)
}

func printState(state map[string]any) {
	board, _ := state["board"].([]any)
	delete(state, "board")

	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-16s %v\n", k+":", state[k])
	}
	for _, row := range board {
		fmt.Printf("  %v\n", row)
	}
}
