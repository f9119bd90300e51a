package session

import "github.com/duetboard/duetboard/internal/board"

func opFixture(id string) board.Operation {
	return board.Operation{ID: id, Kind: "stroke"}
}
