package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event names (client -> server).
const (
	EventCreateRoom      = "createRoom"
	EventJoinRoom        = "joinRoom"
	EventSelectCharacter = "selectCharacter"
	EventStartGame       = "startGame"
	EventPlayerInput     = "playerInput"
	EventSyncState       = "syncState"
	EventGameEnded       = "gameEnded"
	EventLeaveRoom       = "leaveRoom"
)

// Outbound event names (server -> client).
const (
	EventConnected        = "connected"
	EventRoomCreated      = "roomCreated"
	EventJoinResult       = "joinResult"
	EventPlayerJoined     = "playerJoined"
	EventUpdateSelections = "updateSelections"
	EventGameStarted      = "gameStarted"
	EventUpdateState      = "updateState"
	EventPlayerLeft       = "playerLeft"
	EventRoomClosed       = "roomClosed"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadPayload   = errors.New("malformed payload")
)

// Envelope is the wire frame exchanged over the transport. Data carries the
// event-specific payload and is decoded into one of the typed payload structs
// before it reaches the coordinator.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoomPayload requests membership in an existing room.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// SelectCharacterPayload records a character pick for one player slot.
type SelectCharacterPayload struct {
	RoomID      string `json:"roomId"`
	PlayerID    string `json:"playerId"`
	CharacterID string `json:"characterId"`
}

// StartGamePayload carries the pair of starting selections. Host-only.
type StartGamePayload struct {
	RoomID string `json:"roomId"`
	P1     string `json:"p1"`
	P2     string `json:"p2"`
}

// PlayerInputPayload is a stateless input relay frame. Input is opaque to the
// server and forwarded verbatim.
type PlayerInputPayload struct {
	RoomID   string          `json:"roomId"`
	PlayerID string          `json:"playerId"`
	Input    json.RawMessage `json:"input"`
}

// SyncStatePayload overwrites the room's session state wholesale. State is an
// opaque blob owned by the clients.
type SyncStatePayload struct {
	RoomID string          `json:"roomId"`
	State  json.RawMessage `json:"state"`
}

// GameEndedPayload signals game completion to the room.
type GameEndedPayload struct {
	RoomID string `json:"roomId"`
	Winner string `json:"winner"`
}

// LeaveRoomPayload requests voluntary removal from a room.
type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

// JoinResult is the direct reply to a joinRoom request.
type JoinResult struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomId,omitempty"`
	Message string `json:"message,omitempty"`
}

// RoomCreated is the direct reply to a createRoom request.
type RoomCreated struct {
	RoomID string `json:"roomId"`
}

// PlayerInputEvent is the relayed form of a player input, sent to the other
// room members.
type PlayerInputEvent struct {
	PlayerID string          `json:"playerId"`
	Input    json.RawMessage `json:"input"`
}

// GameStarted announces the authoritative starting selections to the room.
type GameStarted struct {
	P1 string `json:"p1"`
	P2 string `json:"p2"`
}

// GameEnded is the relayed end-of-game signal.
type GameEnded struct {
	Winner string `json:"winner"`
}

// DecodeEnvelope parses one wire frame. The event name must be one of the
// inbound events; anything else is rejected here so the coordinator only ever
// sees well-formed, known events.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	switch env.Event {
	case EventCreateRoom, EventJoinRoom, EventSelectCharacter, EventStartGame,
		EventPlayerInput, EventSyncState, EventGameEnded, EventLeaveRoom:
		return &env, nil
	case "":
		return nil, fmt.Errorf("%w: missing event name", ErrBadPayload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// decodeInto unmarshals data into v, treating empty data as malformed since
// every inbound payload type has required fields.
func decodeInto(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrBadPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

// DecodeJoinRoom validates and decodes a joinRoom payload.
func DecodeJoinRoom(data json.RawMessage) (*JoinRoomPayload, error) {
	var p JoinRoomPayload
	if err := decodeInto(data, &p); err != nil {
		return nil, err
	}
	if p.RoomID == "" {
		return nil, fmt.Errorf("%w: roomId is required", ErrBadPayload)
	}
	return &p, nil
}

// DecodeSelectCharacter validates and decodes a selectCharacter payload.
func DecodeSelectCharacter(data json.RawMessage) (*SelectCharacterPayload, error) {
	var p SelectCharacterPayload
	if err := decodeInto(data, &p); err != nil {
		return nil, err
	}
	if p.RoomID == "" || p.PlayerID == "" || p.CharacterID == "" {
		return nil, fmt.Errorf("%w: roomId, playerId and characterId are required", ErrBadPayload)
	}
	return &p, nil
}

// DecodeStartGame validates and decodes a startGame payload.
func DecodeStartGame(data json.RawMessage) (*StartGamePayload, error) {
	var p StartGamePayload
	if err := decodeInto(data, &p); err != nil {
		return nil, err
	}
	if p.RoomID == "" || p.P1 == "" || p.P2 == "" {
		return nil, fmt.Errorf("%w: roomId, p1 and p2 are required", ErrBadPayload)
	}
	return &p, nil
}

// DecodePlayerInput validates and decodes a playerInput payload.
func DecodePlayerInput(data json.RawMessage) (*PlayerInputPayload, error) {
	var p PlayerInputPayload
	if err := decodeInto(data, &p); err != nil {
		return nil, err
	}
	if p.RoomID == "" || p.PlayerID == "" {
		return nil, fmt.Errorf("%w: roomId and playerId are required", ErrBadPayload)
	}
	return &p, nil
}

// DecodeSyncState validates and decodes a syncState payload.
func DecodeSyncState(data json.RawMessage) (*SyncStatePayload, error) {
	var p SyncStatePayload
	if err := decodeInto(data, &p); err != nil {
		return nil, err
	}
	if p.RoomID == "" || len(p.State) == 0 {
		return nil, fmt.Errorf("%w: roomId and state are required", ErrBadPayload)
	}
	return &p, nil
}

// DecodeGameEnded validates and decodes a gameEnded payload.
func DecodeGameEnded(data json.RawMessage) (*GameEndedPayload, error) {
	var p GameEndedPayload
	if err := decodeInto(data, &p); err != nil {
		return nil, err
	}
	if p.RoomID == "" {
		return nil, fmt.Errorf("%w: roomId is required", ErrBadPayload)
	}
	return &p, nil
}

// DecodeLeaveRoom validates and decodes a leaveRoom payload.
func DecodeLeaveRoom(data json.RawMessage) (*LeaveRoomPayload, error) {
	var p LeaveRoomPayload
	if err := decodeInto(data, &p); err != nil {
		return nil, err
	}
	if p.RoomID == "" {
		return nil, fmt.Errorf("%w: roomId is required", ErrBadPayload)
	}
	return &p, nil
}
