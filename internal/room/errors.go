package room

import "errors"

// Validation errors returned by lifecycle operations. Create/join errors
// surface to the requesting client; errors on fire-and-forget game events
// are dropped by the caller without mutating room state.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrNameTaken          = errors.New("name already taken")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrNotLeader          = errors.New("not the leader")
	ErrInvalidTeamSize    = errors.New("invalid team size")
	ErrUnknownPlayer      = errors.New("unknown player")
)

// errGameNotStarted guards game events arriving while the room is still
// in the lobby; such events are dropped, never surfaced.
var errGameNotStarted = errors.New("game not started")
