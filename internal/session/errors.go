package session

import "errors"

var (
	// Missing or empty room ID / display name on join.
	ErrInvalidArgs = errors.New("invalid-args")

	// The target room already has two members.
	ErrRoomFull = errors.New("room-full")

	// The sending connection is not currently bound to a room.
	ErrNotMember = errors.New("not-member")
)

// ErrorKind returns the wire form of a rejection, for ack payloads.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgs):
		return "invalid-args"
	case errors.Is(err, ErrRoomFull):
		return "room-full"
	case errors.Is(err, ErrNotMember):
		return "not-member"
	default:
		return "internal"
	}
}
