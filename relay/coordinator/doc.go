// Package coordinator implements the session coordinator at the heart of the
// relay.
//
// The coordinator package implements:
//   - Room lifecycle transitions (create, join, leave, disconnect)
//   - Character selection and host-gated game start
//   - Stateless relay of input frames and state snapshots
//   - Force-close and idle eviction for the admin surface
//
// Transport Boundary:
//
// The coordinator never touches sockets. It consumes two small interfaces
// provided by the transport layer: Conn (send to one connection) and
// Transport (named groups with full and sender-excluding fan-out). The
// transport reports connection loss by calling Disconnect; the coordinator
// has no error path of its own for transport failures.
//
// Concurrency:
//
// One mutex serializes every operation. Inbound events from all connections
// are applied one at a time, which yields a total order of events per room
// and makes each broadcast atomic with respect to concurrent join/leave on
// the same room. No operation blocks on I/O beyond handing outbound messages
// to the transport, so the single lock is never held across anything slow.
//
// Membership Invariant:
//
// A connection belongs to at most one room. The coordinator tracks each
// connection's current room directly, so disconnect cleanup is a map lookup
// rather than a registry scan, and creating or joining a room while already
// in one first leaves the old room through the normal cleanup path.
//
// Error Policy:
//
// Join failures are acked to the caller only ("Room not found", "Room is
// full"). Every other operation on a vanished room is a silent no-op; a peer
// disconnecting mid-flight must never fault the server. A non-host attempting
// to start the game is ignored.
package coordinator
