package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/versus-relay/relay/coordinator"
	"github.com/wricardo/versus-relay/relay/protocol"
	"github.com/wricardo/versus-relay/relay/room"
)

func newTestClient(h *Hub, id string) *Client {
	return &Client{
		hub:  h,
		id:   id,
		send: make(chan []byte, 8),
	}
}

func TestNewHub(t *testing.T) {
	h := NewHub()

	if h.clients == nil {
		t.Error("clients map not initialized")
	}
	if h.rooms == nil {
		t.Error("rooms map not initialized")
	}
	if h.ConnectionCount() != 0 {
		t.Errorf("Expected 0 connections, got %d", h.ConnectionCount())
	}
}

func TestJoinAndLeaveGroup(t *testing.T) {
	h := NewHub()
	client := newTestClient(h, "conn-1")
	h.addClient(client)

	h.JoinGroup(client, "ROOM01")

	h.mu.RLock()
	if !h.rooms["ROOM01"][client] {
		t.Error("Client not in group after JoinGroup")
	}
	h.mu.RUnlock()

	h.LeaveGroup(client, "ROOM01")

	h.mu.RLock()
	if _, exists := h.rooms["ROOM01"]; exists {
		t.Error("Empty group should be removed after LeaveGroup")
	}
	h.mu.RUnlock()
}

func TestJoinGroupUnknownConnection(t *testing.T) {
	h := NewHub()
	client := newTestClient(h, "ghost")

	// Never added to the hub; must not create a group.
	h.JoinGroup(client, "ROOM01")

	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.rooms) != 0 {
		t.Error("JoinGroup with unknown connection should be a no-op")
	}
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "conn-a")
	b := newTestClient(h, "conn-b")
	h.addClient(a)
	h.addClient(b)
	h.JoinGroup(a, "ROOM01")
	h.JoinGroup(b, "ROOM01")

	h.BroadcastExcept("ROOM01", "conn-a", protocol.EventPlayerJoined, "conn-a")

	select {
	case raw := <-b.send:
		var env protocol.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("Failed to decode frame: %v", err)
		}
		if env.Event != protocol.EventPlayerJoined {
			t.Errorf("Expected event %q, got %q", protocol.EventPlayerJoined, env.Event)
		}
	default:
		t.Error("Other member should have received the broadcast")
	}

	select {
	case <-a.send:
		t.Error("Excluded connection should not receive the broadcast")
	default:
	}
}

func TestBroadcastReachesAllMembers(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "conn-a")
	b := newTestClient(h, "conn-b")
	h.addClient(a)
	h.addClient(b)
	h.JoinGroup(a, "ROOM01")
	h.JoinGroup(b, "ROOM01")

	h.Broadcast("ROOM01", protocol.EventGameEnded, protocol.GameEnded{Winner: "p1"})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.send:
			var env protocol.Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("Failed to decode frame: %v", err)
			}
			if env.Event != protocol.EventGameEnded {
				t.Errorf("Expected event %q, got %q", protocol.EventGameEnded, env.Event)
			}
		default:
			t.Errorf("Client %s did not receive the broadcast", c.id)
		}
	}
}

func TestBroadcastUnknownRoom(t *testing.T) {
	h := NewHub()

	// Must not panic.
	h.Broadcast("NOROOM", protocol.EventGameStarted, nil)
}

func TestRemoveClientScrubsGroups(t *testing.T) {
	h := NewHub()
	client := newTestClient(h, "conn-1")
	h.addClient(client)
	h.JoinGroup(client, "ROOM01")

	h.removeClient(client)

	if h.ConnectionCount() != 0 {
		t.Errorf("Expected 0 connections, got %d", h.ConnectionCount())
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.rooms) != 0 {
		t.Error("removeClient should scrub empty groups")
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	h := NewHub()
	client := newTestClient(h, "conn-1")

	client.close()
	client.close() // idempotent

	// Must not panic on a closed channel.
	client.enqueue([]byte(`{"event":"playerLeft"}`))
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	h := NewHub()
	client := &Client{hub: h, id: "conn-1", send: make(chan []byte, 1)}

	client.enqueue([]byte("one"))
	client.enqueue([]byte("two"))

	if got := len(client.send); got != 1 {
		t.Errorf("Expected 1 buffered frame, got %d", got)
	}
}

func TestEncodeEvent(t *testing.T) {
	payload, err := encodeEvent(protocol.EventRoomCreated, protocol.RoomCreated{RoomID: "ABC123"})
	if err != nil {
		t.Fatalf("encodeEvent failed: %v", err)
	}

	var env protocol.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("Failed to decode frame: %v", err)
	}
	if env.Event != protocol.EventRoomCreated {
		t.Errorf("Expected event %q, got %q", protocol.EventRoomCreated, env.Event)
	}

	var created protocol.RoomCreated
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if created.RoomID != "ABC123" {
		t.Errorf("Expected room ID ABC123, got %q", created.RoomID)
	}
}

func TestEncodeEventNilData(t *testing.T) {
	payload, err := encodeEvent(protocol.EventGameStarted, nil)
	if err != nil {
		t.Fatalf("encodeEvent failed: %v", err)
	}

	var env protocol.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("Failed to decode frame: %v", err)
	}
	if len(env.Data) != 0 {
		t.Errorf("Expected empty data, got %s", env.Data)
	}
}

// wsPeer wraps a dialed test connection and the token the server assigned it.
type wsPeer struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func dialPeer(t *testing.T, serverURL string) *wsPeer {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(serverURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial WebSocket server: %v", err)
	}

	p := &wsPeer{t: t, conn: conn}
	env := p.expect(protocol.EventConnected)
	if err := json.Unmarshal(env.Data, &p.id); err != nil {
		t.Fatalf("Failed to decode connection token: %v", err)
	}
	return p
}

func (p *wsPeer) send(event string, data interface{}) {
	p.t.Helper()

	payload, err := encodeEvent(event, data)
	if err != nil {
		p.t.Fatalf("Failed to encode %s frame: %v", event, err)
	}
	if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		p.t.Fatalf("Failed to write %s frame: %v", event, err)
	}
}

func (p *wsPeer) expect(event string) *protocol.Envelope {
	p.t.Helper()

	p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := p.conn.ReadMessage()
	if err != nil {
		p.t.Fatalf("Failed to read frame: %v", err)
	}

	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		p.t.Fatalf("Failed to decode frame %s: %v", raw, err)
	}
	if env.Event != event {
		p.t.Fatalf("Expected event %q, got %q", event, env.Event)
	}
	return &env
}

func newTestServer(t *testing.T) (*httptest.Server, *coordinator.Coordinator) {
	t.Helper()

	hub := NewHub()
	coord := coordinator.New(room.NewRegistry(), hub)
	hub.SetHandler(coord)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)
	return server, coord
}

func TestRelaySession(t *testing.T) {
	server, coord := newTestServer(t)

	host := dialPeer(t, server.URL)
	defer host.conn.Close()

	host.send(protocol.EventCreateRoom, nil)
	env := host.expect(protocol.EventRoomCreated)
	var created protocol.RoomCreated
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("Failed to decode roomCreated: %v", err)
	}
	if len(created.RoomID) != 6 {
		t.Fatalf("Expected 6-char room code, got %q", created.RoomID)
	}

	// Guest joins; host is notified.
	guest := dialPeer(t, server.URL)
	guest.send(protocol.EventJoinRoom, protocol.JoinRoomPayload{RoomID: created.RoomID})

	env = guest.expect(protocol.EventJoinResult)
	var result protocol.JoinResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("Failed to decode joinResult: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected successful join, got %q", result.Message)
	}
	if result.RoomID != created.RoomID {
		t.Errorf("Expected room ID %q in ack, got %q", created.RoomID, result.RoomID)
	}

	env = host.expect(protocol.EventPlayerJoined)
	var joinedID string
	if err := json.Unmarshal(env.Data, &joinedID); err != nil {
		t.Fatalf("Failed to decode playerJoined: %v", err)
	}
	if joinedID != guest.id {
		t.Errorf("Expected playerJoined %q, got %q", guest.id, joinedID)
	}

	// Both players pick characters; each update reaches both members.
	host.send(protocol.EventSelectCharacter, protocol.SelectCharacterPayload{
		RoomID: created.RoomID, PlayerID: host.id, CharacterID: "ryu",
	})
	for _, p := range []*wsPeer{host, guest} {
		env = p.expect(protocol.EventUpdateSelections)
		var state map[string]interface{}
		if err := json.Unmarshal(env.Data, &state); err != nil {
			t.Fatalf("Failed to decode selections: %v", err)
		}
		if state["p1"] != "ryu" {
			t.Errorf("Expected p1=ryu, got %v", state["p1"])
		}
	}

	guest.send(protocol.EventSelectCharacter, protocol.SelectCharacterPayload{
		RoomID: created.RoomID, PlayerID: guest.id, CharacterID: "ken",
	})
	for _, p := range []*wsPeer{host, guest} {
		env = p.expect(protocol.EventUpdateSelections)
		var state map[string]interface{}
		if err := json.Unmarshal(env.Data, &state); err != nil {
			t.Fatalf("Failed to decode selections: %v", err)
		}
		if state["p1"] != "ryu" || state["p2"] != "ken" {
			t.Errorf("Expected p1=ryu p2=ken, got %v", state)
		}
	}

	// Host starts the game.
	host.send(protocol.EventStartGame, protocol.StartGamePayload{
		RoomID: created.RoomID, P1: "ryu", P2: "ken",
	})
	for _, p := range []*wsPeer{host, guest} {
		env = p.expect(protocol.EventGameStarted)
		var started protocol.GameStarted
		if err := json.Unmarshal(env.Data, &started); err != nil {
			t.Fatalf("Failed to decode gameStarted: %v", err)
		}
		if started.P1 != "ryu" || started.P2 != "ken" {
			t.Errorf("Expected ryu vs ken, got %v vs %v", started.P1, started.P2)
		}
	}

	// Input is relayed to the other player only.
	host.send(protocol.EventPlayerInput, protocol.PlayerInputPayload{
		RoomID:   created.RoomID,
		PlayerID: host.id,
		Input:    json.RawMessage(`{"direction":"left"}`),
	})
	env = guest.expect(protocol.EventPlayerInput)
	var input protocol.PlayerInputEvent
	if err := json.Unmarshal(env.Data, &input); err != nil {
		t.Fatalf("Failed to decode playerInput: %v", err)
	}
	if input.PlayerID != host.id {
		t.Errorf("Expected input from %q, got %q", host.id, input.PlayerID)
	}

	// Authoritative state sync goes to the other player only.
	guest.send(protocol.EventSyncState, protocol.SyncStatePayload{
		RoomID: created.RoomID,
		State:  json.RawMessage(`{"p1":{"hp":72},"p2":{"hp":90}}`),
	})
	env = host.expect(protocol.EventUpdateState)
	var synced map[string]interface{}
	if err := json.Unmarshal(env.Data, &synced); err != nil {
		t.Fatalf("Failed to decode updateState: %v", err)
	}
	if _, ok := synced["p1"]; !ok {
		t.Errorf("Expected synced state to carry p1, got %v", synced)
	}

	// Guest drops; host is told and the room survives with one member.
	guest.conn.Close()
	env = host.expect(protocol.EventPlayerLeft)
	var leftID string
	if err := json.Unmarshal(env.Data, &leftID); err != nil {
		t.Fatalf("Failed to decode playerLeft: %v", err)
	}
	if leftID != guest.id {
		t.Errorf("Expected playerLeft %q, got %q", guest.id, leftID)
	}

	waitFor(t, func() bool {
		info, err := coord.GetRoom(created.RoomID)
		return err == nil && len(info.Members) == 1
	}, "room should shrink to one member")

	// Host drops; the empty room is deleted.
	host.conn.Close()
	waitFor(t, func() bool {
		return coord.RoomCount() == 0
	}, "empty room should be deleted")
}

func TestRelayJoinUnknownRoom(t *testing.T) {
	server, _ := newTestServer(t)

	peer := dialPeer(t, server.URL)
	defer peer.conn.Close()

	peer.send(protocol.EventJoinRoom, protocol.JoinRoomPayload{RoomID: "ZZZZZZ"})

	env := peer.expect(protocol.EventJoinResult)
	var result protocol.JoinResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("Failed to decode joinResult: %v", err)
	}
	if result.Success {
		t.Error("Join of unknown room should fail")
	}
	if result.Message != "Room not found" {
		t.Errorf("Expected 'Room not found', got %q", result.Message)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
