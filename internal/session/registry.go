package session

// Owns the set of active rooms. Rooms are created on first join and
// destroyed the instant they become empty; there is no grace period and
// no persistence.
//
// Like Room, the registry is driven exclusively from the hub's event loop
// and does not lock.
type Registry struct {
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// Returns the room with the given ID, creating an empty one if absent.
func (reg *Registry) GetOrCreate(id string) *Room {
	if room, ok := reg.rooms[id]; ok {
		return room
	}
	room := NewRoom(id)
	reg.rooms[id] = room
	return room
}

// Returns the room with the given ID, or nil.
func (reg *Registry) Get(id string) *Room {
	return reg.rooms[id]
}

// Discards the room and everything it owns. Idempotent.
func (reg *Registry) Remove(id string) {
	delete(reg.rooms, id)
}

func (reg *Registry) Count() int {
	return len(reg.rooms)
}

// Rooms returns the current rooms keyed by ID.
func (reg *Registry) Rooms() map[string]*Room {
	rooms := make(map[string]*Room, len(reg.rooms))
	for id, room := range reg.rooms {
		rooms[id] = room
	}
	return rooms
}
