package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T, inbound InboundHandler) (*Hub, string) {
	t.Helper()
	hub := NewHub(inbound, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("room"))
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, room string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?room="+room, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForRoomSize(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize(room) != want {
		if time.Now().After(deadline) {
			t.Fatalf("room %s size = %d, want %d", room, hub.RoomSize(room), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcast_ReachesRoomOnly(t *testing.T) {
	hub, url := newTestHub(t, nil)

	a := dial(t, url, "session-a")
	b := dial(t, url, "session-b")
	waitForRoomSize(t, hub, "session-a", 1)
	waitForRoomSize(t, hub, "session-b", 1)

	hub.Broadcast("session-a", "playhead", map[string]float64{"time": 3.5})

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := a.ReadJSON(&msg); err != nil {
		t.Fatalf("room member read: %v", err)
	}
	if msg.Type != "playhead" {
		t.Errorf("type = %s", msg.Type)
	}
	var payload map[string]float64
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload["time"] != 3.5 {
		t.Errorf("payload = %s (%v)", msg.Payload, err)
	}

	// The other room must see nothing.
	b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := b.ReadJSON(&msg); err == nil {
		t.Errorf("other room received %+v", msg)
	}
}

func TestInboundMessagesReachHandler(t *testing.T) {
	var mu sync.Mutex
	var got []Message
	var rooms []string
	hub, url := newTestHub(t, func(room string, msg Message) {
		mu.Lock()
		defer mu.Unlock()
		rooms = append(rooms, room)
		got = append(got, msg)
	})

	conn := dial(t, url, "session-x")
	waitForRoomSize(t, hub, "session-x", 1)

	if err := conn.WriteJSON(Message{Type: "pointer_move", Payload: json.RawMessage(`{"x":10}`)}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("handler never received message")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if rooms[0] != "session-x" || got[0].Type != "pointer_move" {
		t.Errorf("handler got room=%s msg=%+v", rooms[0], got[0])
	}
}

func TestCloseRoom_DisconnectsClients(t *testing.T) {
	hub, url := newTestHub(t, nil)
	conn := dial(t, url, "doomed")
	waitForRoomSize(t, hub, "doomed", 1)

	hub.CloseRoom("doomed")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after CloseRoom")
	}
	if hub.RoomSize("doomed") != 0 {
		t.Errorf("room size = %d after close", hub.RoomSize("doomed"))
	}
}

func TestUnregisterOnDisconnect(t *testing.T) {
	hub, url := newTestHub(t, nil)
	conn := dial(t, url, "leavers")
	waitForRoomSize(t, hub, "leavers", 1)

	conn.Close()
	waitForRoomSize(t, hub, "leavers", 0)
}
