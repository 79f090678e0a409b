package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Shoaibashk/BattleLink/internal/bridge"
	"github.com/Shoaibashk/BattleLink/internal/protocol"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(hub.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("expected JSON frame: %v", err)
	}
	return m
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(&fakeBridge{connected: true}, nil, zerolog.Nop())
	conn := dialHub(t, hub)

	hub.Publish(protocol.CellMarked{X: 0, Y: 7, Mark: protocol.MarkMiss})
	hub.Publish(protocol.Win{})

	m := readJSON(t, conn)
	if m["type"] != "cell_marked" || m["y"] != float64(7) || m["mark"] != "MISS" {
		t.Errorf("unexpected frame: %v", m)
	}
	if m = readJSON(t, conn); m["type"] != "win" {
		t.Errorf("expected win frame, got %v", m)
	}
}

func TestHubForwardsCommands(t *testing.T) {
	fb := &fakeBridge{connected: true}
	hub := NewHub(fb, nil, zerolog.Nop())
	conn := dialHub(t, hub)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("difficulty 3")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(fb.commands()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("command never reached the bridge")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := fb.commands()[0]; got != "SET DIFFICULTY=3" {
		t.Errorf("expected SET DIFFICULTY=3, got=%s", got)
	}
}

func TestHubReportsRejectedCommand(t *testing.T) {
	hub := NewHub(&fakeBridge{sendErr: bridge.ErrNotConnected}, nil, zerolog.Nop())
	conn := dialHub(t, hub)

	conn.WriteMessage(websocket.TextMessage, []byte("start"))

	m := readJSON(t, conn)
	if m["type"] != "error" || m["error"] != bridge.ErrNotConnected.Error() {
		t.Errorf("unexpected reply: %v", m)
	}
}

func TestHubClose(t *testing.T) {
	hub := NewHub(&fakeBridge{}, nil, zerolog.Nop())
	conn := dialHub(t, hub)

	hub.Close()
	if hub.Clients() != 0 {
		t.Errorf("expected no clients after Close, got=%d", hub.Clients())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to be closed")
	}
}
