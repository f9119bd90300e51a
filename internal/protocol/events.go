package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/duetboard/duetboard/internal/board"
)

// The type of a room-scoped event.
type EventType string

const (
	// client -> server
	EventJoinRoom EventType = "join-room"
	EventLeave    EventType = "leave"

	// client -> server, relayed to peers
	EventDrawOp EventType = "draw-op"
	EventClear  EventType = "clear"
	EventUndo   EventType = "undo"
	EventCursor EventType = "cursor"
	EventChat   EventType = "chat"

	// server -> client
	EventSyncState    EventType = "sync-state"
	EventMemberJoined EventType = "member-joined"
	EventMemberLeft   EventType = "member-left"
	EventAck          EventType = "ack"
)

// One frame on the event channel: a type tag plus a type-specific payload.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Payloads, client -> server.

type JoinRoom struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
}

type Undo struct {
	// Optional. When set, undo targets this operation wherever it sits
	// in the log; when empty, the most recent operation is removed.
	TargetOpID string `json:"targetOpId,omitempty"`
}

type CursorUpdate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ChatSend struct {
	Text string `json:"text"`
}

// Payloads, server -> client.

type Ack struct {
	Event EventType `json:"event"`
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
}

type SyncState struct {
	Operations []board.Operation `json:"operations"`
}

// Broadcast after an undo. Op is the removed operation, or null when the
// log was already empty (or the targeted ID was absent).
type UndoResult struct {
	Op *board.Operation `json:"op"`
}

type CursorBroadcast struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type ChatMessage struct {
	From string    `json:"from"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type MemberInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Decode parses one inbound frame.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed event: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("event missing type")
	}
	return &env, nil
}

// Encode builds an outbound frame. Marshal failures indicate a programming
// error in the payload types, so they surface as errors rather than panics.
func Encode(t EventType, payload any) ([]byte, error) {
	env := Envelope{Type: t}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", t, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Payload unmarshals the envelope data into dst.
func (e *Envelope) Payload(dst any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, dst)
}
