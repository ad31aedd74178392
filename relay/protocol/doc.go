// Package protocol defines the wire protocol between relay clients and the
// server.
//
// The protocol package implements:
//   - The JSON envelope exchanged over the transport
//   - Typed payload structs for every inbound event
//   - Boundary validation that rejects malformed frames
//   - Event name constants for both directions
//
// Message Protocol:
//
// Every frame is a JSON envelope:
//   - Incoming: {"event": "joinRoom", "data": {"roomId": "AB12CD"}}
//   - Outgoing: {"event": "updateSelections", "data": {"p1": "ryu", "p2": null}}
//
// Inbound payloads are decoded into closed, typed structs before they reach
// the session coordinator. A frame that fails to decode, names an unknown
// event, or is missing required fields is dropped at the transport boundary;
// partial or undefined values never propagate into room state.
//
// Opaque Fields:
//
// Player input and synced game state are owned by the clients. They are
// carried as json.RawMessage and relayed verbatim, never interpreted by the
// server.
package protocol
