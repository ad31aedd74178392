package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"event":"joinRoom","data":{"roomId":"AB12CD"}}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if env.Event != EventJoinRoom {
		t.Errorf("Expected event %q, got %q", EventJoinRoom, env.Event)
	}
	if len(env.Data) == 0 {
		t.Error("Expected data to be carried through")
	}
}

func TestDecodeEnvelopeRejectsUnknownEvent(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"event":"formatDisk"}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("Expected ErrUnknownEvent, got %v", err)
	}
}

func TestDecodeEnvelopeRejectsMissingEvent(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"data":{}}`))
	if !errors.Is(err, ErrBadPayload) {
		t.Errorf("Expected ErrBadPayload, got %v", err)
	}
}

func TestDecodeEnvelopeRejectsInvalidJSON(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`not json`))
	if !errors.Is(err, ErrBadPayload) {
		t.Errorf("Expected ErrBadPayload, got %v", err)
	}
}

func TestDecodeEnvelopeAcceptsAllInboundEvents(t *testing.T) {
	events := []string{
		EventCreateRoom, EventJoinRoom, EventSelectCharacter, EventStartGame,
		EventPlayerInput, EventSyncState, EventGameEnded, EventLeaveRoom,
	}

	for _, event := range events {
		raw, _ := json.Marshal(Envelope{Event: event})
		if _, err := DecodeEnvelope(raw); err != nil {
			t.Errorf("Expected %s to decode, got %v", event, err)
		}
	}
}

func TestDecodeJoinRoom(t *testing.T) {
	p, err := DecodeJoinRoom(json.RawMessage(`{"roomId":"AB12CD"}`))
	if err != nil {
		t.Fatalf("DecodeJoinRoom failed: %v", err)
	}
	if p.RoomID != "AB12CD" {
		t.Errorf("Expected roomId AB12CD, got %s", p.RoomID)
	}
}

func TestDecodeJoinRoomRequiresRoomID(t *testing.T) {
	if _, err := DecodeJoinRoom(json.RawMessage(`{}`)); !errors.Is(err, ErrBadPayload) {
		t.Errorf("Expected ErrBadPayload, got %v", err)
	}
	if _, err := DecodeJoinRoom(nil); !errors.Is(err, ErrBadPayload) {
		t.Errorf("Expected ErrBadPayload for missing data, got %v", err)
	}
}

func TestDecodeSelectCharacter(t *testing.T) {
	data := json.RawMessage(`{"roomId":"AB12CD","playerId":"p-1","characterId":"ryu"}`)

	p, err := DecodeSelectCharacter(data)
	if err != nil {
		t.Fatalf("DecodeSelectCharacter failed: %v", err)
	}
	if p.CharacterID != "ryu" {
		t.Errorf("Expected characterId ryu, got %s", p.CharacterID)
	}
}

func TestDecodeSelectCharacterRequiresAllFields(t *testing.T) {
	cases := []string{
		`{"playerId":"p-1","characterId":"ryu"}`,
		`{"roomId":"AB12CD","characterId":"ryu"}`,
		`{"roomId":"AB12CD","playerId":"p-1"}`,
	}

	for _, c := range cases {
		if _, err := DecodeSelectCharacter(json.RawMessage(c)); !errors.Is(err, ErrBadPayload) {
			t.Errorf("Expected ErrBadPayload for %s, got %v", c, err)
		}
	}
}

func TestDecodeStartGame(t *testing.T) {
	p, err := DecodeStartGame(json.RawMessage(`{"roomId":"AB12CD","p1":"ryu","p2":"ken"}`))
	if err != nil {
		t.Fatalf("DecodeStartGame failed: %v", err)
	}
	if p.P1 != "ryu" || p.P2 != "ken" {
		t.Errorf("Expected ryu/ken, got %s/%s", p.P1, p.P2)
	}
}

func TestDecodePlayerInputKeepsInputOpaque(t *testing.T) {
	data := json.RawMessage(`{"roomId":"AB12CD","playerId":"p-1","input":{"buttons":["punch"],"frame":812}}`)

	p, err := DecodePlayerInput(data)
	if err != nil {
		t.Fatalf("DecodePlayerInput failed: %v", err)
	}
	if string(p.Input) != `{"buttons":["punch"],"frame":812}` {
		t.Errorf("Input blob was not preserved verbatim: %s", p.Input)
	}
}

func TestDecodeSyncStateRequiresState(t *testing.T) {
	if _, err := DecodeSyncState(json.RawMessage(`{"roomId":"AB12CD"}`)); !errors.Is(err, ErrBadPayload) {
		t.Errorf("Expected ErrBadPayload, got %v", err)
	}
}

func TestDecodeGameEndedAllowsEmptyWinner(t *testing.T) {
	// A draw has no winner; only the room is required.
	p, err := DecodeGameEnded(json.RawMessage(`{"roomId":"AB12CD"}`))
	if err != nil {
		t.Fatalf("DecodeGameEnded failed: %v", err)
	}
	if p.Winner != "" {
		t.Errorf("Expected empty winner, got %s", p.Winner)
	}
}

func TestDecodeLeaveRoom(t *testing.T) {
	p, err := DecodeLeaveRoom(json.RawMessage(`{"roomId":"AB12CD"}`))
	if err != nil {
		t.Fatalf("DecodeLeaveRoom failed: %v", err)
	}
	if p.RoomID != "AB12CD" {
		t.Errorf("Expected roomId AB12CD, got %s", p.RoomID)
	}
}
