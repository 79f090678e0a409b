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

package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Shoaibashk/BattleLink/internal/bridge"
	"github.com/Shoaibashk/BattleLink/internal/game"
	"github.com/Shoaibashk/BattleLink/internal/protocol"
)

const subscriberBuffer = 64

// Bridge is the part of bridge.Bridge the remote surfaces drive
type Bridge interface {
	Send(cmd protocol.Command) error
	Connected() bool
}

// GameState is the part of game.State the remote surfaces read
type GameState interface {
	Snapshot() game.Snapshot
	StartTimer()
}

// Publisher receives every decoded event
type Publisher interface {
	Publish(ev protocol.Event)
}

// Server implements BridgeServiceServer. Events published to it are fanned
// out to every StreamEvents subscriber; a subscriber whose buffer is full
// misses the event.
type Server struct {
	bridge         Bridge
	game           GameState
	log            zerolog.Logger
	maxSubscribers int
	startTime      time.Time

	mu      sync.RWMutex
	subs    map[string]chan *structpb.Struct
	done    chan struct{}
	closing sync.Once

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewServer creates a gRPC server for b. maxSubscribers <= 0 means unlimited.
func NewServer(b Bridge, g GameState, maxSubscribers int, logger zerolog.Logger) *Server {
	return &Server{
		bridge:         b,
		game:           g,
		log:            logger,
		maxSubscribers: maxSubscribers,
		startTime:      time.Now(),
		subs:           make(map[string]chan *structpb.Struct),
		done:           make(chan struct{}),
	}
}

// Register adds the service to r
func (s *Server) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(&BridgeService_ServiceDesc, s)
}

// Publish converts ev once and offers it to every subscriber
func (s *Server) Publish(ev protocol.Event) {
	msg, err := structpb.NewStruct(EventToMap(ev))
	if err != nil {
		s.log.Error().Err(err).Str("event", ev.Kind()).Msg("failed to encode event")
		return
	}
	s.published.Add(1)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, ch := range s.subs {
		select {
		case ch <- msg:
		default:
			s.dropped.Add(1)
			s.log.Warn().Str("subscriber", id).Str("event", ev.Kind()).Msg("subscriber too slow, event dropped")
		}
	}
}

// Subscribers returns the number of open event streams
func (s *Server) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full
func (s *Server) Dropped() uint64 {
	return s.dropped.Load()
}

// Close ends every open event stream so a graceful stop does not wait on them
func (s *Server) Close() {
	s.closing.Do(func() { close(s.done) })
}

func (s *Server) subscribe() (string, chan *structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSubscribers > 0 && len(s.subs) >= s.maxSubscribers {
		return "", nil, status.Errorf(codes.ResourceExhausted, "subscriber limit of %d reached", s.maxSubscribers)
	}

	id := uuid.New().String()
	ch := make(chan *structpb.Struct, subscriberBuffer)
	s.subs[id] = ch
	return id, ch, nil
}

func (s *Server) unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// SendCommand parses an operator command and writes it to the controller
func (s *Server) SendCommand(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	cmd, err := protocol.ParseCommand(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.bridge.Send(cmd); err != nil {
		if errors.Is(err, bridge.ErrNotConnected) || errors.Is(err, bridge.ErrClosed) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	if cmd == protocol.CommandStart && s.game != nil {
		s.game.StartTimer()
	}
	return &emptypb.Empty{}, nil
}

// GetState returns the current game snapshot
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	var snap game.Snapshot
	if s.game != nil {
		snap = s.game.Snapshot()
	}

	st, err := structpb.NewStruct(SnapshotToMap(snap, s.bridge.Connected()))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

// StreamEvents sends every event published after the call until the client
// goes away or the server closes
func (s *Server) StreamEvents(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	id, ch, err := s.subscribe()
	if err != nil {
		return err
	}
	defer s.unsubscribe(id)

	s.log.Info().Str("subscriber", id).Msg("event stream opened")
	defer s.log.Info().Str("subscriber", id).Msg("event stream closed")

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case msg := <-ch:
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

// Ping echoes the message back with the server uptime appended
func (s *Server) Ping(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	uptime := time.Since(s.startTime).Truncate(time.Second)
	return wrapperspb.String(req.GetValue() + " (uptime " + uptime.String() + ")"), nil
}

// EventHandler turns bridge callbacks back into events and hands them to
// publishers
type EventHandler struct {
	sinks []Publisher
}

var (
	_ bridge.Handler             = (*EventHandler)(nil)
	_ bridge.UnrecognizedHandler = (*EventHandler)(nil)
)

// NewEventHandler creates a handler publishing to every sink
func NewEventHandler(sinks ...Publisher) *EventHandler {
	return &EventHandler{sinks: sinks}
}

// Add appends a sink. It must not be called once events are flowing.
func (h *EventHandler) Add(p Publisher) {
	h.sinks = append(h.sinks, p)
}

func (h *EventHandler) publish(ev protocol.Event) {
	for _, s := range h.sinks {
		s.Publish(ev)
	}
}

func (h *EventHandler) OnGameStart(totalAttacks, totalShips int) {
	h.publish(protocol.GameStart{TotalAttacks: totalAttacks, TotalShips: totalShips})
}

func (h *EventHandler) OnAttack()        { h.publish(protocol.AttackConsumed{}) }
func (h *EventHandler) OnShipDestroyed() { h.publish(protocol.ShipDestroyed{}) }
func (h *EventHandler) OnWin()           { h.publish(protocol.Win{}) }
func (h *EventHandler) OnLose()          { h.publish(protocol.Lose{}) }
func (h *EventHandler) OnBoardReset()    { h.publish(protocol.BoardReset{}) }

func (h *EventHandler) OnCellMarked(x, y int, mark protocol.Mark) {
	h.publish(protocol.CellMarked{X: x, Y: y, Mark: mark})
}

func (h *EventHandler) OnUnrecognized(raw string) {
	h.publish(protocol.Unrecognized{Raw: raw})
}
