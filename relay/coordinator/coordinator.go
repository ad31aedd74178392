package coordinator

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/wricardo/versus-relay/relay/protocol"
	"github.com/wricardo/versus-relay/relay/room"
)

// Conn represents one client's bidirectional channel. It is provided by the
// transport layer; the coordinator only consumes it.
type Conn interface {
	// ID returns the process-lifetime-unique token identifying this
	// connection.
	ID() string
	// Send enqueues an event to this connection. Fire-and-forget.
	Send(event string, data interface{})
}

// Transport is the group primitive offered by the transport layer: named
// groups keyed by room code, with full and sender-excluding fan-out.
type Transport interface {
	JoinGroup(conn Conn, roomID string)
	LeaveGroup(conn Conn, roomID string)
	Broadcast(roomID string, event string, data interface{})
	BroadcastExcept(roomID string, exceptID string, event string, data interface{})
}

// membership tracks which room a connection currently occupies. A connection
// belongs to at most one room; keeping the room code here replaces the
// original linear registry scan on disconnect.
type membership struct {
	roomID string
	conn   Conn
}

// Coordinator applies session state transitions for inbound client events and
// routes the resulting messages back through the transport. A single mutex
// serializes all operations, so no two operations on the same room ever
// interleave and every broadcast is atomic with respect to concurrent
// join/leave.
type Coordinator struct {
	registry  *room.Registry
	transport Transport

	mu      sync.Mutex
	members map[string]membership
}

// New creates a coordinator around a fresh or injected registry.
func New(registry *room.Registry, transport Transport) *Coordinator {
	return &Coordinator{
		registry:  registry,
		transport: transport,
		members:   make(map[string]membership),
	}
}

// Dispatch decodes one inbound envelope and routes it to the matching
// operation. Malformed payloads are dropped here; they never reach room
// state.
func (c *Coordinator) Dispatch(conn Conn, env *protocol.Envelope) {
	switch env.Event {
	case protocol.EventCreateRoom:
		c.CreateRoom(conn)
	case protocol.EventJoinRoom:
		p, err := protocol.DecodeJoinRoom(env.Data)
		if err != nil {
			c.dropFrame(conn, env.Event, err)
			return
		}
		c.JoinRoom(conn, p.RoomID)
	case protocol.EventSelectCharacter:
		p, err := protocol.DecodeSelectCharacter(env.Data)
		if err != nil {
			c.dropFrame(conn, env.Event, err)
			return
		}
		c.SelectCharacter(conn, p)
	case protocol.EventStartGame:
		p, err := protocol.DecodeStartGame(env.Data)
		if err != nil {
			c.dropFrame(conn, env.Event, err)
			return
		}
		c.StartGame(conn, p)
	case protocol.EventPlayerInput:
		p, err := protocol.DecodePlayerInput(env.Data)
		if err != nil {
			c.dropFrame(conn, env.Event, err)
			return
		}
		c.PlayerInput(conn, p)
	case protocol.EventSyncState:
		p, err := protocol.DecodeSyncState(env.Data)
		if err != nil {
			c.dropFrame(conn, env.Event, err)
			return
		}
		c.SyncState(conn, p)
	case protocol.EventGameEnded:
		p, err := protocol.DecodeGameEnded(env.Data)
		if err != nil {
			c.dropFrame(conn, env.Event, err)
			return
		}
		c.GameEnded(conn, p)
	case protocol.EventLeaveRoom:
		p, err := protocol.DecodeLeaveRoom(env.Data)
		if err != nil {
			c.dropFrame(conn, env.Event, err)
			return
		}
		c.LeaveRoom(conn, p.RoomID)
	}
}

func (c *Coordinator) dropFrame(conn Conn, event string, err error) {
	log.Printf("Dropping %s frame from %s: %v", event, conn.ID(), err)
}

// CreateRoom registers a fresh room with the caller as host and replies with
// the room code. A caller already in a room leaves it first.
func (c *Coordinator) CreateRoom(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.leaveCurrentLocked(conn)

	r, err := c.registry.Create()
	if err != nil {
		log.Printf("Room creation failed for %s: %v", conn.ID(), err)
		conn.Send(protocol.EventRoomCreated, protocol.RoomCreated{})
		return
	}

	r.AddMember(conn.ID())
	c.members[conn.ID()] = membership{roomID: r.ID, conn: conn}
	c.transport.JoinGroup(conn, r.ID)

	conn.Send(protocol.EventRoomCreated, protocol.RoomCreated{RoomID: r.ID})
}

// JoinRoom appends the caller to an existing room. Failures ("Room not
// found", "Room is full") are acked to the caller only and never broadcast.
// A caller already in another room leaves it, but only once the join is known
// to succeed; a failed join leaves every room's membership untouched.
func (c *Coordinator) JoinRoom(conn Conn, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.registry.Get(roomID)
	if err != nil {
		conn.Send(protocol.EventJoinResult, protocol.JoinResult{Success: false, Message: "Room not found"})
		return
	}

	// Rejoining the room the caller already occupies is idempotent.
	if entry, ok := c.members[conn.ID()]; ok && entry.roomID == roomID {
		conn.Send(protocol.EventJoinResult, protocol.JoinResult{Success: true, RoomID: roomID})
		return
	}

	// Reject before detaching from the current room.
	if r.MemberCount() >= room.MaxMembers {
		conn.Send(protocol.EventJoinResult, protocol.JoinResult{Success: false, Message: "Room is full"})
		return
	}

	c.leaveCurrentLocked(conn)

	if err := r.AddMember(conn.ID()); err != nil {
		conn.Send(protocol.EventJoinResult, protocol.JoinResult{Success: false, Message: "Room is full"})
		return
	}

	c.members[conn.ID()] = membership{roomID: r.ID, conn: conn}
	c.transport.JoinGroup(conn, r.ID)

	c.transport.BroadcastExcept(r.ID, conn.ID(), protocol.EventPlayerJoined, conn.ID())
	conn.Send(protocol.EventJoinResult, protocol.JoinResult{Success: true, RoomID: r.ID})
}

// SelectCharacter records a character pick in the slot matching the supplied
// player identity and broadcasts the full selection state to every member,
// caller included. A playerId matching neither seat is a no-op on state but
// still broadcasts.
func (c *Coordinator) SelectCharacter(conn Conn, p *protocol.SelectCharacterPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.registry.Get(p.RoomID)
	if err != nil {
		return
	}

	switch {
	case len(r.Members) > 0 && p.PlayerID == r.Members[0]:
		r.State["p1"] = p.CharacterID
	case len(r.Members) > 1 && p.PlayerID == r.Members[1]:
		r.State["p2"] = p.CharacterID
	}
	r.Touch()

	// Broadcast a snapshot so the live map never escapes the lock.
	c.transport.Broadcast(r.ID, protocol.EventUpdateSelections, copyState(r.State))
}

// StartGame replaces the session state with a fresh pair of starting
// selections and announces the start to all members. Host-only; a non-host
// caller is a silent no-op.
func (c *Coordinator) StartGame(conn Conn, p *protocol.StartGamePayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.registry.Get(p.RoomID)
	if err != nil {
		return
	}
	if !r.IsHost(conn.ID()) {
		log.Printf("Ignoring startGame from non-host %s in room %s", conn.ID(), r.ID)
		return
	}

	r.State = map[string]interface{}{"p1": p.P1, "p2": p.P2}
	r.Touch()

	c.transport.Broadcast(r.ID, protocol.EventGameStarted, protocol.GameStarted{P1: p.P1, P2: p.P2})
}

// PlayerInput relays an input frame to the other room members without
// touching session state. This is the hot path during live gameplay; the
// payload is forwarded verbatim.
func (c *Coordinator) PlayerInput(conn Conn, p *protocol.PlayerInputPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.registry.Get(p.RoomID)
	if err != nil {
		return
	}
	r.Touch()

	c.transport.BroadcastExcept(r.ID, conn.ID(), protocol.EventPlayerInput,
		protocol.PlayerInputEvent{PlayerID: p.PlayerID, Input: p.Input})
}

// SyncState overwrites the session state wholesale with the supplied blob and
// relays it to the other room members.
func (c *Coordinator) SyncState(conn Conn, p *protocol.SyncStatePayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.registry.Get(p.RoomID)
	if err != nil {
		return
	}

	var state map[string]interface{}
	if err := json.Unmarshal(p.State, &state); err != nil {
		c.dropFrame(conn, protocol.EventSyncState, err)
		return
	}
	r.State = state
	r.Touch()

	c.transport.BroadcastExcept(r.ID, conn.ID(), protocol.EventUpdateState, json.RawMessage(p.State))
}

// GameEnded relays the end-of-game signal to every member, caller included.
// It has no effect on membership; the room stays live until its members
// leave.
func (c *Coordinator) GameEnded(conn Conn, p *protocol.GameEndedPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, err := c.registry.Get(p.RoomID); err == nil {
		r.Touch()
	}

	c.transport.Broadcast(p.RoomID, protocol.EventGameEnded, protocol.GameEnded{Winner: p.Winner})
}

// LeaveRoom removes the caller from the room, deleting the room when it
// becomes empty and notifying the remaining member otherwise.
func (c *Coordinator) LeaveRoom(conn Conn, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.members[conn.ID()]
	if !ok || entry.roomID != roomID {
		return
	}
	c.leaveCurrentLocked(conn)
}

// Disconnect handles transport-level connection loss. Cleanup is identical
// to a voluntary leave; the tracked membership avoids scanning the registry.
func (c *Coordinator) Disconnect(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.leaveCurrentLocked(conn)
}

// leaveCurrentLocked detaches the connection from its current room, if any.
// Caller must hold c.mu.
func (c *Coordinator) leaveCurrentLocked(conn Conn) {
	entry, ok := c.members[conn.ID()]
	if !ok {
		return
	}
	delete(c.members, conn.ID())
	c.transport.LeaveGroup(conn, entry.roomID)

	r, err := c.registry.Get(entry.roomID)
	if err != nil {
		return
	}

	if !r.RemoveMember(conn.ID()) {
		return
	}

	if c.registry.RemoveIfEmpty(r.ID) {
		log.Printf("Room %s deleted (last member %s left)", r.ID, conn.ID())
		return
	}

	c.transport.Broadcast(r.ID, protocol.EventPlayerLeft, conn.ID())
}

// CloseRoom force-closes a room (admin surface), notifying members and
// detaching them before deletion.
func (c *Coordinator) CloseRoom(roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.registry.Get(roomID)
	if err != nil {
		return err
	}

	c.closeRoomLocked(r, "closed by operator")
	c.registry.Remove(r.ID)
	return nil
}

// EvictIdle removes rooms idle beyond maxAge, notifying any remaining
// members. It returns the number of rooms evicted.
func (c *Coordinator) EvictIdle(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.registry.RemoveIdle(maxAge)
	for _, r := range removed {
		c.closeRoomLocked(r, "room idle timeout")
	}
	return len(removed)
}

// closeRoomLocked broadcasts roomClosed and detaches all members. The room
// itself is removed by the caller (or already gone, for evictions). Caller
// must hold c.mu.
func (c *Coordinator) closeRoomLocked(r *room.Room, reason string) {
	c.transport.Broadcast(r.ID, protocol.EventRoomClosed, map[string]string{"reason": reason})

	for _, id := range r.Members {
		entry, ok := c.members[id]
		if !ok {
			continue
		}
		delete(c.members, id)
		c.transport.LeaveGroup(entry.conn, r.ID)
	}
	r.Members = nil
}

// RoomInfo is a point-in-time snapshot of a room, safe to serialize outside
// the coordinator's lock.
type RoomInfo struct {
	ID           string                 `json:"id"`
	Members      []string               `json:"members"`
	State        map[string]interface{} `json:"state"`
	CreatedAt    time.Time              `json:"created_at"`
	LastActiveAt time.Time              `json:"last_active_at"`
}

// ListRooms returns snapshots of all live rooms.
func (c *Coordinator) ListRooms() []RoomInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms := c.registry.List()
	result := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		result = append(result, snapshotRoom(r))
	}
	return result
}

// GetRoom returns a snapshot of one room.
func (c *Coordinator) GetRoom(roomID string) (RoomInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.registry.Get(roomID)
	if err != nil {
		return RoomInfo{}, err
	}
	return snapshotRoom(r), nil
}

// RoomCount returns the number of live rooms.
func (c *Coordinator) RoomCount() int {
	return c.registry.Count()
}

func snapshotRoom(r *room.Room) RoomInfo {
	members := make([]string, len(r.Members))
	copy(members, r.Members)

	return RoomInfo{
		ID:           r.ID,
		Members:      members,
		State:        copyState(r.State),
		CreatedAt:    r.CreatedAt,
		LastActiveAt: r.LastActiveAt,
	}
}

func copyState(state map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}
