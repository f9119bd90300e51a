package ws

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duetboard/duetboard/internal/board"
	"github.com/duetboard/duetboard/internal/protocol"
	"github.com/duetboard/duetboard/internal/session"
)

// Routes every room-scoped event between the two members of a room and
// owns all room state.
//
// All state mutation happens inside Run's select loop: each inbound event
// is handled to completion before the next, so no two mutations on the
// same room ever interleave and every broadcast observes settled state.
// The loop takes the write lock around each step; the mutex exists so the
// HTTP stats handlers read settled state, not to coordinate mutators.
type Hub struct {
	registry *session.Registry

	// Live clients per room, for fan-out
	rooms map[string]map[*Client]bool

	// All connected clients, joined or not
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	inbound    chan *inboundEvent

	mu sync.RWMutex
}

type inboundEvent struct {
	client *Client
	env    *protocol.Envelope
}

func NewHub() *Hub {
	return &Hub{
		registry:   session.NewRegistry(),
		rooms:      make(map[string]map[*Client]bool),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *inboundEvent),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Client %s connected", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.leaveLocked(client)
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Client %s disconnected", client.id)

		case ev := <-h.inbound:
			h.dispatch(ev.client, ev.env)
		}
	}
}

func (h *Hub) dispatch(c *Client, env *protocol.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Events can still arrive from a connection the hub has already
	// dropped; its send channel is closed, so nothing may be queued.
	if _, ok := h.clients[c]; !ok {
		return
	}

	switch env.Type {
	case protocol.EventJoinRoom:
		h.handleJoin(c, env)
	case protocol.EventLeave:
		// Explicit leave and disconnect share one cleanup path.
		h.leaveLocked(c)
	case protocol.EventDrawOp:
		h.handleDraw(c, env)
	case protocol.EventClear:
		h.handleClear(c)
	case protocol.EventUndo:
		h.handleUndo(c, env)
	case protocol.EventCursor:
		h.handleCursor(c, env)
	case protocol.EventChat:
		h.handleChat(c, env)
	default:
		log.Printf("Client %s sent unknown event type %q", c.id, env.Type)
	}
}

func (h *Hub) handleJoin(c *Client, env *protocol.Envelope) {
	var join protocol.JoinRoom
	if err := env.Payload(&join); err != nil || join.RoomID == "" || join.DisplayName == "" {
		h.ack(c, protocol.EventJoinRoom, session.ErrInvalidArgs)
		return
	}
	if c.roomID != "" {
		// Already bound; a connection joins at most one room.
		h.ack(c, protocol.EventJoinRoom, session.ErrInvalidArgs)
		return
	}

	room := h.registry.GetOrCreate(join.RoomID)
	if err := room.AddMember(c.id, join.DisplayName); err != nil {
		// A failed join must not leave an empty room behind.
		if room.Empty() {
			h.registry.Remove(join.RoomID)
		}
		h.ack(c, protocol.EventJoinRoom, err)
		return
	}

	c.roomID = join.RoomID
	c.displayName = join.DisplayName
	if _, ok := h.rooms[join.RoomID]; !ok {
		h.rooms[join.RoomID] = make(map[*Client]bool)
	}
	h.rooms[join.RoomID][c] = true

	h.ack(c, protocol.EventJoinRoom, nil)

	// Snapshot catch-up, before any later draw-op can be relayed.
	h.sendTo(c, protocol.EventSyncState, protocol.SyncState{
		Operations: room.Log.Snapshot(),
	})

	h.relay(c, protocol.EventMemberJoined, protocol.MemberInfo{
		ID:          c.id,
		DisplayName: c.displayName,
	})

	log.Printf("%s joined room %s (members: %d)", c.displayName, room.ID, room.MemberCount())
}

func (h *Hub) handleDraw(c *Client, env *protocol.Envelope) {
	room := h.memberRoom(c)
	if room == nil {
		h.ack(c, protocol.EventDrawOp, session.ErrNotMember)
		return
	}

	var op board.Operation
	if err := env.Payload(&op); err != nil {
		h.ack(c, protocol.EventDrawOp, session.ErrInvalidArgs)
		return
	}
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.Kind == "" {
		op.Kind = "stroke"
	}
	op.Author = c.id

	room.Log.Append(op)
	h.relay(c, protocol.EventDrawOp, op)
	h.ack(c, protocol.EventDrawOp, nil)
}

func (h *Hub) handleClear(c *Client) {
	room := h.memberRoom(c)
	if room == nil {
		h.ack(c, protocol.EventClear, session.ErrNotMember)
		return
	}

	room.Log.Clear()
	// Unlike draw-op, clear goes to the sender too, for an idempotent
	// local reset.
	h.broadcast(c.roomID, protocol.EventClear, nil)
	h.ack(c, protocol.EventClear, nil)
}

func (h *Hub) handleUndo(c *Client, env *protocol.Envelope) {
	room := h.memberRoom(c)
	if room == nil {
		h.ack(c, protocol.EventUndo, session.ErrNotMember)
		return
	}

	var undo protocol.Undo
	if err := env.Payload(&undo); err != nil {
		h.ack(c, protocol.EventUndo, session.ErrInvalidArgs)
		return
	}

	// Undo is room-scoped: either member may remove the other's stroke.
	var removed *board.Operation
	if undo.TargetOpID != "" {
		removed = room.Log.RemoveByID(undo.TargetOpID)
	} else {
		removed = room.Log.RemoveLast()
	}

	h.broadcast(c.roomID, protocol.EventUndo, protocol.UndoResult{Op: removed})
	h.ack(c, protocol.EventUndo, nil)
}

func (h *Hub) handleCursor(c *Client, env *protocol.Envelope) {
	room := h.memberRoom(c)
	if room == nil {
		// Cursor updates are unacknowledged; drop silently.
		return
	}

	var cur protocol.CursorUpdate
	if err := env.Payload(&cur); err != nil {
		return
	}

	room.SetCursor(c.id, session.Cursor{X: cur.X, Y: cur.Y})
	h.relayDroppable(c, protocol.EventCursor, protocol.CursorBroadcast{
		ID:          c.id,
		DisplayName: c.displayName,
		X:           cur.X,
		Y:           cur.Y,
	})
}

func (h *Hub) handleChat(c *Client, env *protocol.Envelope) {
	if h.memberRoom(c) == nil {
		h.ack(c, protocol.EventChat, session.ErrNotMember)
		return
	}

	var msg protocol.ChatSend
	if err := env.Payload(&msg); err != nil {
		h.ack(c, protocol.EventChat, session.ErrInvalidArgs)
		return
	}

	from := c.displayName
	if from == "" {
		from = "Anonymous"
	}

	// Stamped server-side and delivered to everyone including the
	// sender. Chat is never stored in the operation log.
	h.broadcast(c.roomID, protocol.EventChat, protocol.ChatMessage{
		From: from,
		Text: msg.Text,
		At:   time.Now().UTC(),
	})
}

// leaveLocked runs the single cleanup path shared by explicit leave and
// disconnect: member removal, cursor eviction, peer notification, room
// destruction when empty. Idempotent; callers hold h.mu.
func (h *Hub) leaveLocked(c *Client) {
	if c.roomID == "" {
		return
	}
	roomID := c.roomID

	if room := h.registry.Get(roomID); room != nil {
		room.RemoveMember(c.id)
		if room.Empty() {
			h.registry.Remove(roomID)
		}
	}

	if clients, ok := h.rooms[roomID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
			log.Printf("Room %s closed (empty)", roomID)
		}
	}

	h.relay(c, protocol.EventMemberLeft, protocol.MemberInfo{
		ID:          c.id,
		DisplayName: c.displayName,
	})

	c.roomID = ""
	c.displayName = ""
}

// memberRoom returns the client's room, or nil when the client is not
// currently bound to one.
func (h *Hub) memberRoom(c *Client) *session.Room {
	if c.roomID == "" {
		return nil
	}
	room := h.registry.Get(c.roomID)
	if room == nil || !room.IsMember(c.id) {
		return nil
	}
	return room
}

func (h *Hub) ack(c *Client, event protocol.EventType, err error) {
	ack := protocol.Ack{Event: event, OK: err == nil}
	if err != nil {
		ack.Error = session.ErrorKind(err)
	}
	h.sendTo(c, protocol.EventAck, ack)
}

// sendTo queues one frame for one client. A client that cannot keep up
// is dropped, like any other dead connection.
//
// The liveness check matters: a handler may drop a client partway through
// (say, a broadcast that includes the sender) and then try to ack that
// same client. Its send channel is closed by then, so sending without the
// check would panic and take the whole server down.
func (h *Hub) sendTo(c *Client, t protocol.EventType, payload any) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("Encode %s failed: %v", t, err)
		return
	}
	select {
	case c.send <- frame:
	default:
		h.drop(c)
	}
}

// relay delivers an event to every other current member of the sender's
// room; the sender is excluded.
func (h *Hub) relay(sender *Client, t protocol.EventType, payload any) {
	clients, ok := h.rooms[sender.roomID]
	if !ok {
		return
	}
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("Encode %s failed: %v", t, err)
		return
	}
	for client := range clients {
		if client == sender {
			continue
		}
		select {
		case client.send <- frame:
		default:
			h.drop(client)
		}
	}
}

// relayDroppable is relay for fire-and-forget events: a full send buffer
// just loses the frame, since only the latest cursor position matters.
func (h *Hub) relayDroppable(sender *Client, t protocol.EventType, payload any) {
	clients, ok := h.rooms[sender.roomID]
	if !ok {
		return
	}
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		return
	}
	for client := range clients {
		if client == sender {
			continue
		}
		select {
		case client.send <- frame:
		default:
		}
	}
}

// broadcast delivers an event to all members of a room, sender included.
func (h *Hub) broadcast(roomID string, t protocol.EventType, payload any) {
	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("Encode %s failed: %v", t, err)
		return
	}
	for client := range clients {
		select {
		case client.send <- frame:
		default:
			h.drop(client)
		}
	}
}

// drop removes a client that can no longer be written to. Its readPump
// will also fire unregister eventually; both paths are idempotent.
func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.leaveLocked(c)
	delete(h.clients, c)
	close(c.send)
}

// Stats accessors, for the HTTP API.

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.Count()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type RoomSummary struct {
	ID             string   `json:"id"`
	Members        []string `json:"members"`
	OperationCount int      `json:"operation_count"`
}

// RoomSummaries lists the live rooms with member display names and log
// sizes.
func (h *Hub) RoomSummaries() []RoomSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	summaries := make([]RoomSummary, 0, h.registry.Count())
	for id, room := range h.registry.Rooms() {
		names := make([]string, 0, room.MemberCount())
		for _, name := range room.Members() {
			names = append(names, name)
		}
		summaries = append(summaries, RoomSummary{
			ID:             id,
			Members:        names,
			OperationCount: room.Log.Len(),
		})
	}
	return summaries
}
