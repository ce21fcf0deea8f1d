package game

import "time"

// Player limits
const (
	MinPlayers = 1
	MaxPlayers = 10
)

// Join codes
const JoinCodeLength = 6

// Reveal pacing. These delays only drive client-side suspense; correctness
// must not depend on them.
const (
	RoleRevealDelay   = 3 * time.Second
	ResultRevealDelay = 5 * time.Second
	TransitionSettle  = 2 * time.Second
)

// Janitor timing
const (
	JanitorInterval = 30 * time.Second
	EmptyRoomGrace  = 5 * time.Minute
)
