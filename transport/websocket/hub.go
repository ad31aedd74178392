package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wricardo/versus-relay/relay/coordinator"
	"github.com/wricardo/versus-relay/relay/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Handler receives decoded inbound events and connection-loss notifications.
// Implemented by the session coordinator.
type Handler interface {
	Dispatch(conn coordinator.Conn, env *protocol.Envelope)
	Disconnect(conn coordinator.Conn)
}

// Hub maintains the set of active clients and the named broadcast groups
// (keyed by room code) the coordinator fans out to. It implements
// coordinator.Transport.
type Hub struct {
	handler Handler

	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[*Client]bool
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[*Client]bool),
	}
}

// SetHandler wires the inbound event handler. Must be called before ServeWS.
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

// ServeWS handles WebSocket upgrade requests from clients. Each connection
// gets a fresh opaque token and a pair of pump goroutines.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		id:   uuid.NewString(),
	}

	h.addClient(client)

	// Tell the client its token; it doubles as the player identity in
	// selection frames.
	client.Send(protocol.EventConnected, client.id)

	go client.writePump()
	go client.readPump()
}

// JoinGroup adds a connection to a room's broadcast group.
func (h *Hub) JoinGroup(conn coordinator.Conn, roomID string) {
	client, ok := h.lookup(conn.ID())
	if !ok {
		return
	}

	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	h.mu.Unlock()
}

// LeaveGroup removes a connection from a room's broadcast group, cleaning up
// the group when it empties.
func (h *Hub) LeaveGroup(conn coordinator.Conn, roomID string) {
	client, ok := h.lookup(conn.ID())
	if !ok {
		return
	}

	h.mu.Lock()
	if members, exists := h.rooms[roomID]; exists {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every member of a room's group.
func (h *Hub) Broadcast(roomID string, event string, data interface{}) {
	h.broadcast(roomID, "", event, data)
}

// BroadcastExcept sends an event to every member of a room's group except
// the named connection.
func (h *Hub) BroadcastExcept(roomID string, exceptID string, event string, data interface{}) {
	h.broadcast(roomID, exceptID, event, data)
}

func (h *Hub) broadcast(roomID, exceptID, event string, data interface{}) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("Failed to marshal %s broadcast for room %s: %v", event, roomID, err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for client := range h.rooms[roomID] {
		if client.id == exceptID {
			continue
		}
		members = append(members, client)
	}
	h.mu.RUnlock()

	for _, client := range members {
		client.enqueue(payload)
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	log.Printf("Client connected: %s (total clients: %d)", client.id, h.ConnectionCount())
}

// removeClient drops the client from the hub and from any group it still
// occupies. Group membership is normally cleared by the coordinator's
// disconnect path before this runs.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	delete(h.clients, client.id)
	for roomID, members := range h.rooms {
		if members[client] {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.mu.Unlock()

	log.Printf("Client disconnected: %s (total clients: %d)", client.id, h.ConnectionCount())
}

func (h *Hub) lookup(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[id]
	return client, ok
}

func encodeEvent(event string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	return json.Marshal(protocol.Envelope{Event: event, Data: raw})
}
