package session

import (
	"github.com/duetboard/duetboard/internal/board"
)

// A room accepts at most two concurrent members.
const MaxMembers = 2

// Last reported cursor position for one connection. Overwritten on every
// update, never logged, discarded on leave.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// One collaboration session: the operation log, current membership, and
// ephemeral cursor positions. Membership is keyed by connection ID.
//
// Rooms are not self-locking: all mutation happens inside the hub's event
// loop, which processes one event at a time.
type Room struct {
	ID      string
	Log     *board.Log
	members map[string]string // connection ID -> display name
	cursors map[string]Cursor
}

func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		Log:     board.NewLog(),
		members: make(map[string]string),
		cursors: make(map[string]Cursor),
	}
}

// Registers a connection as a member. Fails with ErrRoomFull at capacity,
// leaving membership unchanged. Rejoining under the same connection ID just
// refreshes the display name.
func (r *Room) AddMember(connID, displayName string) error {
	if _, ok := r.members[connID]; !ok && len(r.members) >= MaxMembers {
		return ErrRoomFull
	}
	r.members[connID] = displayName
	return nil
}

// Removes a connection and evicts its cursor. Idempotent.
func (r *Room) RemoveMember(connID string) {
	delete(r.members, connID)
	delete(r.cursors, connID)
}

func (r *Room) IsMember(connID string) bool {
	_, ok := r.members[connID]
	return ok
}

func (r *Room) MemberCount() int {
	return len(r.members)
}

func (r *Room) Empty() bool {
	return len(r.members) == 0
}

// Returns the display names of current members, keyed by connection ID.
func (r *Room) Members() map[string]string {
	members := make(map[string]string, len(r.members))
	for id, name := range r.members {
		members[id] = name
	}
	return members
}

func (r *Room) SetCursor(connID string, c Cursor) {
	if _, ok := r.members[connID]; !ok {
		return
	}
	r.cursors[connID] = c
}

func (r *Room) GetCursor(connID string) (Cursor, bool) {
	c, ok := r.cursors[connID]
	return c, ok
}
