// Package api provides the HTTP surface of the relay server.
//
// The api package implements:
//   - REST endpoints for observing and administering rooms
//   - Server statistics
//   - Liveness probe
//   - WebSocket upgrade handling
//   - Static file serving
//
// Endpoints:
//
// Rooms:
//   - GET /api/rooms - List live rooms
//   - GET /api/rooms/{id} - Get one room (membership and session state)
//   - DELETE /api/rooms/{id} - Force-close a room (members are notified)
//
// Server:
//   - GET /api/stats - Room count, connection count, uptime, version
//   - GET /healthz - Liveness probe
//
// Realtime:
//   - GET /ws - WebSocket upgrade; all relay traffic flows over this
//
// The admin endpoints are read/force-close only: rooms are created and
// joined exclusively over the WebSocket protocol by the players themselves.
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "Room not found"
//	}
package api
