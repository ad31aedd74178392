package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/versus-relay/relay/coordinator"
)

// Client is a thin MCP client that proxies to the REST admin API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Versus Relay Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Versus Relay Server - MCP Interface

This is a thin client that proxies all requests to the REST admin API.

ABOUT THE SERVER:
The relay pairs two remote players into a room (6-character share code) and
forwards character selections, input events, state snapshots, and end-of-game
signals between them. The server holds no game logic; rooms are created and
joined by the players over WebSocket.

AVAILABLE TOOLS:
- list_rooms: List all live rooms
- get_room: Get one room's membership and session state
- close_room: Force-close a room (members are notified)
- server_stats: Room count, connection count, uptime, version`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List all live rooms with member counts and activity times",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get one room's membership and session state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room code to retrieve",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "close_room",
		Description: "Force-close a room; remaining members receive a roomClosed event",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room code to close",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleCloseRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Get server statistics (rooms, connections, uptime, version)",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStats)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                    `json:"count"`
		Rooms []coordinator.RoomInfo `json:"rooms"`
	}

	err := c.apiCall("GET", "/api/rooms", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Live Rooms (%d):\n\n", response.Count)
	for _, r := range response.Rooms {
		result += fmt.Sprintf("- %s (%d/2 members, last active: %s)\n",
			r.ID, len(r.Members), r.LastActiveAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	roomID, _ := args["room_id"].(string)
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	var info coordinator.RoomInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/rooms/%s", roomID), nil, &info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoomInfo(&info)), nil
}

func (c *Client) handleCloseRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	roomID, _ := args["room_id"].(string)
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	err := c.apiCall("DELETE", fmt.Sprintf("/api/rooms/%s", roomID), nil, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Room %s closed", roomID)), nil
}

func (c *Client) handleServerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats struct {
		Rooms         int     `json:"rooms"`
		Connections   int     `json:"connections"`
		UptimeSeconds float64 `json:"uptime_seconds"`
		Version       string  `json:"version"`
	}

	err := c.apiCall("GET", "/api/stats", nil, &stats)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Server Stats:\n- Version: %s\n- Rooms: %d\n- Connections: %d\n- Uptime: %s\n",
		stats.Version, stats.Rooms, stats.Connections,
		(time.Duration(stats.UptimeSeconds) * time.Second).String())

	return mcp.NewToolResultText(result), nil
}

// formatRoomInfo renders a room snapshot for tool output.
func formatRoomInfo(info *coordinator.RoomInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Room %s\n", info.ID)
	fmt.Fprintf(&b, "Created: %s\n", info.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Last active: %s\n", info.LastActiveAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Members (%d/2):\n", len(info.Members))
	for i, m := range info.Members {
		role := "guest"
		if i == 0 {
			role = "host"
		}
		fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, m, role)
	}

	state, err := json.MarshalIndent(info.State, "", "  ")
	if err == nil {
		fmt.Fprintf(&b, "Session state:\n%s\n", state)
	}

	return b.String()
}
