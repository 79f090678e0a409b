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
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Shoaibashk/BattleLink/internal/protocol"
)

const (
	wsWriteWait  = 5 * time.Second
	wsSendBuffer = 64
)

// Hub serves WebSocket clients on /ws. Every published event is broadcast as
// a JSON text frame. Text frames from clients are parsed as operator commands
// and sent to the controller; a rejected command is answered with an
// {"type":"error"} frame to that client only.
type Hub struct {
	bridge   Bridge
	game     GameState
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub forwarding commands to b
func NewHub(b Bridge, g GameState, logger zerolog.Logger) *Hub {
	return &Hub{
		bridge:   b,
		game:     g,
		log:      logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*wsClient]struct{}),
	}
}

// Handler returns the HTTP handler tree for the hub
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	return mux
}

// Publish broadcasts ev to every connected client. Slow clients miss frames.
func (h *Hub) Publish(ev protocol.Event) {
	data, err := json.Marshal(EventToMap(ev))
	if err != nil {
		h.log.Error().Err(err).Str("event", ev.Kind()).Msg("failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("websocket client too slow, frame dropped")
		}
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("websocket client connected")

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug().Err(err).Msg("websocket write failed")
			h.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) readLoop(c *wsClient) {
	defer func() {
		h.remove(c)
		h.log.Info().Str("remote", c.conn.RemoteAddr().String()).Msg("websocket client disconnected")
	}()

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if err := h.handleCommand(string(data)); err != nil {
			h.reply(c, map[string]any{"type": "error", "error": err.Error()})
		}
	}
}

func (h *Hub) handleCommand(input string) error {
	cmd, err := protocol.ParseCommand(input)
	if err != nil {
		return err
	}
	if err := h.bridge.Send(cmd); err != nil {
		return err
	}
	if cmd == protocol.CommandStart && h.game != nil {
		h.game.StartTimer()
	}
	return nil
}

func (h *Hub) reply(c *wsClient, msg map[string]any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
