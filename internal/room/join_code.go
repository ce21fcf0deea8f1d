package room

import (
	"math/rand"

	"github.com/seojin-dev/avalon-server/internal/game"
)

var digits = []rune("0123456789")

// randomJoinCode creates a random fixed-length digit code. Uniqueness is
// checked against the store by the caller.
func randomJoinCode() string {
	b := make([]rune, game.JoinCodeLength)
	for i := range b {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}
