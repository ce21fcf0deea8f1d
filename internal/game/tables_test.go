package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamSize_StandardTable(t *testing.T) {
	assert.Equal(t, 2, TeamSize(5, 1))
	assert.Equal(t, 3, TeamSize(5, 2))
	assert.Equal(t, 3, TeamSize(5, 5))
	assert.Equal(t, 4, TeamSize(7, 4))
	assert.Equal(t, 5, TeamSize(10, 5))
}

func TestTeamSize_OutOfRangePhaseClampsToFirst(t *testing.T) {
	assert.Equal(t, TeamSize(5, 1), TeamSize(5, 0))
	assert.Equal(t, TeamSize(5, 1), TeamSize(5, 6))
}

func TestBalance_SumsToPlayerCount(t *testing.T) {
	for count := 1; count <= 10; count++ {
		b := Balance(count)
		assert.Equal(t, count, b.Good+b.Evil, "player count %d", count)
	}
}

func TestTwoFailsRequired(t *testing.T) {
	assert.False(t, TwoFailsRequired(5, 4))
	assert.False(t, TwoFailsRequired(6, 4))
	assert.False(t, TwoFailsRequired(7, 3))
	assert.True(t, TwoFailsRequired(7, 4))
	assert.True(t, TwoFailsRequired(10, 4))
}
