// Package room provides room entities and the registry that owns them.
//
// The room package implements:
//   - The two-seat Room entity with ordered membership (host first)
//   - Thread-safe room storage and retrieval
//   - Unique room code generation
//   - Immediate deletion of rooms that become empty
//   - Idle room eviction
//
// Room Codes:
//
// Rooms use 6-character upper-case alphanumeric codes for easy sharing
// between players. The registry ensures codes are unique among live rooms
// and provides collision-resistant generation using cryptographic
// randomness.
//
// Concurrency:
//
// The registry is thread-safe; the room-code map is the only shared mutable
// resource and every mutation goes through it. Individual Room values carry
// no lock of their own: the session coordinator serializes all per-room
// reads and writes, which is the contract the rest of the system relies on.
//
// Usage:
//
//	reg := room.NewRegistry()
//
//	r, err := reg.Create()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	r, err = reg.Get(code)
//	if errors.Is(err, room.ErrRoomNotFound) {
//		// normal outcome, surface to the client
//	}
//
// Cleanup:
//
// A room is removed the moment its member count reaches zero, whether via
// voluntary leave or disconnect. RemoveIdle additionally evicts abandoned
// rooms past a retention window.
package room
