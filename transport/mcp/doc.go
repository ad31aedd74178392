// Package mcp provides a Model Context Protocol surface for the relay server.
//
// The mcp package implements:
//   - MCP server for AI agent and operator tooling integration
//   - Tool definitions for room observation and administration
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//
// The package exposes the following tools:
//   - list_rooms: List all live rooms
//   - get_room: Get one room's membership and session state
//   - close_room: Force-close a room
//   - server_stats: Room count, connection count, uptime, version
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: POST /mcp endpoint mounted alongside the REST API
//
// Design:
//
// The client is intentionally thin: every tool call proxies to the REST
// admin API, so the MCP surface can target either an in-process server or a
// remote deployment, and the REST API stays the single source of truth.
package mcp
