// Package websocket provides the WebSocket transport for the relay server.
//
// The websocket package implements:
//   - Real-time bidirectional communication
//   - Opaque per-connection tokens
//   - Named broadcast groups keyed by room code
//   - Connection lifecycle management
//   - Frame decoding and dispatch to the session coordinator
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each connection is handled by a dedicated pair of
// goroutines (read pump, write pump) that manage reading, writing, ping/pong
// keepalive, and cleanup.
//
// The Hub implements the coordinator's Transport interface: the coordinator
// decides who receives what, the hub only moves bytes. Group membership is
// mutated exclusively by the coordinator (JoinGroup/LeaveGroup), so a
// broadcast observes a consistent member set.
//
// Message Protocol:
//
// Frames are JSON envelopes as defined by the protocol package. Inbound
// frames are decoded and validated before dispatch; malformed frames are
// dropped without disconnecting the client.
//
// Usage:
//
//	hub := websocket.NewHub()
//	coord := coordinator.New(room.NewRegistry(), hub)
//	hub.SetHandler(coord)
//	http.HandleFunc("/ws", hub.ServeWS)
//
// Connection Lifecycle:
//
// 1. Client connects, is assigned a fresh token, and receives it in a
//    connected event
// 2. Client sends createRoom/joinRoom and further events
// 3. Outbound events are queued on a buffered channel per client
// 4. Disconnection notifies the coordinator, which performs room cleanup
package websocket
