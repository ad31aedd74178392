// Command relayctl is an operator CLI for the relay server's REST admin API.
//
// Usage:
//
//	relayctl rooms list
//	relayctl rooms show AB12CD
//	relayctl rooms close AB12CD
//	relayctl stats
//
// The target server is selected with --addr or the RELAY_ADDR environment
// variable (default http://localhost:8080).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/versus-relay/relay/coordinator"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "relayctl",
		Usage: "Operate a running versus-relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Base URL of the relay server",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("RELAY_ADDR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "rooms",
				Usage: "Inspect and administer rooms",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List live rooms",
						Action: runRoomsList,
					},
					{
						Name:      "show",
						Usage:     "Show one room's membership and session state",
						ArgsUsage: "<room-id>",
						Action:    runRoomsShow,
					},
					{
						Name:      "close",
						Usage:     "Force-close a room",
						ArgsUsage: "<room-id>",
						Action:    runRoomsClose,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show server statistics",
				Action: runStats,
			},
		},
	}
}

func runRoomsList(ctx context.Context, cmd *cli.Command) error {
	var response struct {
		Count int                    `json:"count"`
		Rooms []coordinator.RoomInfo `json:"rooms"`
	}
	if err := apiCall(cmd, "GET", "/api/rooms", &response); err != nil {
		return err
	}

	fmt.Printf("Live rooms: %d\n", response.Count)
	for _, r := range response.Rooms {
		fmt.Printf("  %s  %d/2 members  last active %s\n",
			r.ID, len(r.Members), r.LastActiveAt.Format(time.RFC3339))
	}
	return nil
}

func runRoomsShow(ctx context.Context, cmd *cli.Command) error {
	roomID := cmd.Args().First()
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}

	var info coordinator.RoomInfo
	if err := apiCall(cmd, "GET", "/api/rooms/"+roomID, &info); err != nil {
		return err
	}

	fmt.Printf("Room %s\n", info.ID)
	fmt.Printf("Created:     %s\n", info.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Last active: %s\n", info.LastActiveAt.Format(time.RFC3339))
	fmt.Printf("Members (%d/2):\n", len(info.Members))
	for i, m := range info.Members {
		role := "guest"
		if i == 0 {
			role = "host"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, m, role)
	}

	state, err := json.MarshalIndent(info.State, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("Session state:\n%s\n", state)
	return nil
}

func runRoomsClose(ctx context.Context, cmd *cli.Command) error {
	roomID := cmd.Args().First()
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}

	if err := apiCall(cmd, "DELETE", "/api/rooms/"+roomID, nil); err != nil {
		return err
	}
	fmt.Printf("Room %s closed\n", roomID)
	return nil
}

func runStats(ctx context.Context, cmd *cli.Command) error {
	var stats struct {
		Rooms         int     `json:"rooms"`
		Connections   int     `json:"connections"`
		UptimeSeconds float64 `json:"uptime_seconds"`
		Version       string  `json:"version"`
	}
	if err := apiCall(cmd, "GET", "/api/stats", &stats); err != nil {
		return err
	}

	fmt.Printf("Version:     %s\n", stats.Version)
	fmt.Printf("Rooms:       %d\n", stats.Rooms)
	fmt.Printf("Connections: %d\n", stats.Connections)
	fmt.Printf("Uptime:      %s\n", (time.Duration(stats.UptimeSeconds) * time.Second).String())
	return nil
}

// apiCall performs one request against the admin API and decodes the JSON
// response into result when non-nil.
func apiCall(cmd *cli.Command, method, path string, result interface{}) error {
	url := cmd.String("addr") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
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
