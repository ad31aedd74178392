package room

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// maxCodeAttempts bounds collision retries. With a 36^6 code space this
	// is never reached in practice.
	maxCodeAttempts = 10
)

// Registry is the exclusive owner of all live rooms. The only way to reach a
// room is by code lookup through the registry, and a room whose membership
// drops to zero is deleted immediately.
type Registry struct {
	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// Create generates a fresh room code, registers an empty room under it, and
// returns the room. Codes are checked against live rooms and regenerated on
// collision.
func (reg *Registry) Create() (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateRoomCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}
		if _, taken := reg.rooms[code]; taken {
			continue
		}
		r := NewRoom(code)
		reg.rooms[code] = r
		return r, nil
	}

	return nil, fmt.Errorf("failed to allocate a unique room code after %d attempts", maxCodeAttempts)
}

// Get retrieves a live room by code. ErrRoomNotFound is a normal, expected
// outcome for callers; a room may vanish at any moment when its last member
// disconnects.
func (reg *Registry) Get(id string) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	r, exists := reg.rooms[id]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Remove deletes a room regardless of membership. It reports whether the
// room existed.
func (reg *Registry) Remove(id string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.rooms[id]; !exists {
		return false
	}
	delete(reg.rooms, id)
	return true
}

// RemoveIfEmpty deletes the room when its membership has reached zero,
// enforcing the invariant that empty rooms never stay registered. It reports
// whether a deletion happened.
func (reg *Registry) RemoveIfEmpty(id string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, exists := reg.rooms[id]
	if !exists || !r.Empty() {
		return false
	}
	delete(reg.rooms, id)
	return true
}

// List returns all live rooms.
func (reg *Registry) List() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	result := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		result = append(result, r)
	}
	return result
}

// Count returns the number of live rooms.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// RemoveIdle deletes rooms whose last activity is older than maxAge and
// returns the removed rooms so the caller can notify any remaining members.
func (reg *Registry) RemoveIdle(maxAge time.Duration) []*Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var removed []*Room
	for id, r := range reg.rooms {
		if r.LastActiveAt.Before(cutoff) {
			delete(reg.rooms, id)
			removed = append(removed, r)
		}
	}
	return removed
}

// generateRoomCode produces a 6-character upper-case alphanumeric code from
// a cryptographic random source.
func generateRoomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
