package board

import "encoding/json"

// A single 2-D coordinate on the drawing surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// One committed drawing operation. Operations are immutable once appended
// to a room's log; undo removes whole operations, never edits them.
type Operation struct {
	// Generated by the authoring client. Undo-by-id targets this.
	ID string `json:"id"`

	// Connection ID of the originator. Attribution only, never used
	// for ordering.
	Author string `json:"author,omitempty"`

	// Shape kind, e.g. "stroke". Opaque to the server; richer clients
	// may send "rect", "line", etc. and the log treats them uniformly.
	Kind string `json:"kind"`

	Points []Point `json:"points,omitempty"`

	// Color, stroke width, tool tag. Free-form client payload.
	Style json.RawMessage `json:"style,omitempty"`
}
