package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestOutcome_SingleFailRule(t *testing.T) {
	tests := []struct {
		name        string
		success     int
		fail        int
		playerCount int
		phase       int
		want        Result
	}{
		{"all success", 3, 0, 5, 1, ResultSuccess},
		{"one fail sabotages", 2, 1, 5, 1, ResultFail},
		{"one fail sabotages phase 4 small game", 2, 1, 5, 4, ResultFail},
		{"one fail sabotages phase 4 six players", 2, 1, 6, 4, ResultFail},

		// 7+ players, phase 4: two fails required.
		{"one fail survives phase 4 seven players", 3, 1, 7, 4, ResultSuccess},
		{"two fails sabotage phase 4 seven players", 2, 2, 7, 4, ResultFail},
		{"one fail survives phase 4 ten players", 4, 1, 10, 4, ResultSuccess},
		{"one fail sabotages phase 1 seven players", 1, 1, 7, 1, ResultFail},
		{"one fail sabotages phase 5 seven players", 3, 1, 7, 5, ResultFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuestOutcome(tt.success, tt.fail, tt.playerCount, tt.phase)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWinner(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []Result
		winner   Team
		done     bool
	}{
		{"empty", nil, TeamNone, false},
		{"undecided", []Result{ResultSuccess, ResultFail}, TeamNone, false},
		{"two each", []Result{ResultSuccess, ResultFail, ResultSuccess, ResultFail}, TeamNone, false},
		{"good wins", []Result{ResultSuccess, ResultSuccess, ResultSuccess}, TeamGood, true},
		{"evil wins", []Result{ResultFail, ResultFail, ResultFail}, TeamEvil, true},
		{"good wins three to two", []Result{ResultSuccess, ResultFail, ResultSuccess, ResultFail, ResultSuccess}, TeamGood, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, successes, fails, done := Winner(tt.outcomes)
			assert.Equal(t, tt.winner, winner)
			assert.Equal(t, tt.done, done)
			assert.Equal(t, len(tt.outcomes), successes+fails)
		})
	}
}
