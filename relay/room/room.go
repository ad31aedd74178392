package room

import (
	"errors"
	"time"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
)

// MaxMembers is the membership capacity of a room. The relay pairs exactly
// two participants.
const MaxMembers = 2

// Room pairs up to two participants under a short shareable code. Member
// order is meaningful: Members[0] is the host, Members[1] the guest. State is
// the free-form session blob owned by the clients (selections, last synced
// snapshot); the server relays it without interpreting it.
//
// Rooms are not internally locked. All access is serialized by the owning
// coordinator, so no two operations on the same room ever interleave.
type Room struct {
	ID           string                 `json:"id"`
	Members      []string               `json:"members"`
	State        map[string]interface{} `json:"state"`
	CreatedAt    time.Time              `json:"created_at"`
	LastActiveAt time.Time              `json:"last_active_at"`
}

// NewRoom creates an empty room with default session state (both character
// slots unset).
func NewRoom(id string) *Room {
	now := time.Now()
	return &Room{
		ID:           id,
		Members:      []string{},
		State:        map[string]interface{}{"p1": nil, "p2": nil},
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// AddMember appends a connection to the member list. The first member becomes
// the host. Adding beyond capacity fails with ErrRoomFull and leaves
// membership untouched.
func (r *Room) AddMember(connID string) error {
	if len(r.Members) >= MaxMembers {
		return ErrRoomFull
	}
	r.Members = append(r.Members, connID)
	r.Touch()
	return nil
}

// RemoveMember removes a connection from the member list, compacting it so
// that a remaining guest moves into the host slot. It reports whether the
// connection was a member.
func (r *Room) RemoveMember(connID string) bool {
	for i, m := range r.Members {
		if m == connID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			r.Touch()
			return true
		}
	}
	return false
}

// HasMember reports whether the connection is currently a member.
func (r *Room) HasMember(connID string) bool {
	for _, m := range r.Members {
		if m == connID {
			return true
		}
	}
	return false
}

// IsHost reports whether the connection occupies the host slot.
func (r *Room) IsHost(connID string) bool {
	return len(r.Members) > 0 && r.Members[0] == connID
}

// MemberCount returns the current number of members.
func (r *Room) MemberCount() int {
	return len(r.Members)
}

// Empty reports whether the room has no members left.
func (r *Room) Empty() bool {
	return len(r.Members) == 0
}

// Touch marks the room as recently active for idle eviction purposes.
func (r *Room) Touch() {
	r.LastActiveAt = time.Now()
}
