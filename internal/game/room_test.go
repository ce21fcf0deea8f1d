package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPlayerByName_CaseInsensitive(t *testing.T) {
	r := NewRoom("room-1", "111111", "p1", "Alice", "conn-1")

	key, ok := r.FindPlayerByName("alice")
	assert.True(t, ok)
	assert.Equal(t, "p1", key)

	_, ok = r.FindPlayerByName("Bob")
	assert.False(t, ok)
}

func TestPlayerKeys_JoinOrder(t *testing.T) {
	r := NewRoom("room-1", "111111", "p1", "Alice", "conn-1")
	r.Players["p2"] = &PlayerSlot{Name: "Bob", Seq: r.NextSeq()}
	r.Players["p3"] = &PlayerSlot{Name: "Carol", Seq: r.NextSeq()}

	assert.Equal(t, []string{"p1", "p2", "p3"}, r.PlayerKeys())
}

func TestOutcomes_CollectsAcrossPhases(t *testing.T) {
	r := NewRoom("room-1", "111111", "p1", "Alice", "conn-1")
	r.PhaseResults[1] = &PhaseResult{Outcomes: []Result{ResultSuccess}}
	r.PhaseResults[3] = &PhaseResult{Outcomes: []Result{ResultFail, ResultSuccess}}

	assert.Equal(t, []Result{ResultSuccess, ResultFail, ResultSuccess}, r.Outcomes())
}

func TestRoom_JSONRoundTrip(t *testing.T) {
	r := NewRoom("room-1", "111111", "p1", "Alice", "conn-1")
	r.GameStarted = true
	r.Characters["p1"] = Character{Role: RoleMerlin, Team: TeamGood}
	r.Proposal = &ProposalVote{
		Counts: map[string]int{"p1": 2},
		Voters: map[string]bool{"p1": true},
	}
	r.PhaseResults[1] = &PhaseResult{Success: 2, Outcomes: []Result{ResultSuccess}}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got Room
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, r.Characters, got.Characters)
	assert.Equal(t, r.Proposal, got.Proposal)
	assert.Equal(t, r.PhaseResults, got.PhaseResults)
	assert.Nil(t, got.QuestVote, "inactive vote records stay nil through persistence")
}
