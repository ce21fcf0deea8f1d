package game

import (
	"sort"
	"strings"
	"time"
)

// PlayerSlot is one player's entry in a room. ConnectionID is empty while
// the player is offline; the slot itself survives disconnects so the same
// player key can be reclaimed on rejoin.
type PlayerSlot struct {
	ConnectionID string `json:"connection_id,omitempty"`
	Name         string `json:"name"`
	Seq          int    `json:"seq"` // join order, used for deterministic tie-breaks
}

// Online reports whether the slot has a live connection.
func (p *PlayerSlot) Online() bool {
	return p.ConnectionID != ""
}

// ProposalVote accumulates team-proposal ballots for the current round.
// Players vote for who should be on the team; Counts tracks votes received
// per nominee and Voters tracks who has already cast a ballot.
type ProposalVote struct {
	Counts map[string]int  `json:"counts"`
	Voters map[string]bool `json:"voters"`
}

// QuestVote accumulates the secret success/fail ballots of the quest team.
type QuestVote struct {
	Success int             `json:"success"`
	Fail    int             `json:"fail"`
	Voters  map[string]bool `json:"voters"`
}

// PhaseResult is the broadcast-visible tally of one phase's result votes.
// Outcomes is ordered; a phase may be resolved more than once in some
// variants.
type PhaseResult struct {
	Success  int      `json:"success"`
	Fail     int      `json:"fail"`
	Outcomes []Result `json:"outcomes"`
}

// ReconnectWait marks a player who dropped mid-game.
type ReconnectWait struct {
	PlayerKey string    `json:"player_key"`
	Name      string    `json:"name"`
	Since     time.Time `json:"since"`
}

// Room is the aggregate state of one game session. It is the persisted
// document: everything here round-trips through JSON.
type Room struct {
	Key       string                 `json:"key"`
	JoinCode  string                 `json:"join_code"`
	LeaderKey string                 `json:"leader_key"` // room creator, may start the game
	Players   map[string]*PlayerSlot `json:"players"`
	ReadyKeys map[string]bool        `json:"ready_keys"`

	Characters     map[string]Character `json:"characters"`
	GameStarted    bool                 `json:"game_started"`
	RoundLeaderKey string               `json:"round_leader_key"`
	Round          int                  `json:"round"`
	Phase          int                  `json:"phase"`
	UsedLeaderKeys []string             `json:"used_leader_keys"`

	// Transient vote records; nil means no vote of that kind is active.
	Proposal  *ProposalVote `json:"proposal,omitempty"`
	Selection []string      `json:"selection,omitempty"`
	QuestVote *QuestVote    `json:"quest_vote,omitempty"`

	PhaseResults map[int]*PhaseResult `json:"phase_results"`

	Transitioning       bool           `json:"transitioning"`
	WaitingForReconnect *ReconnectWait `json:"waiting_for_reconnect,omitempty"`
	EmptySince          *time.Time     `json:"empty_since,omitempty"`
}

// NewRoom creates a room in lobby state with the creator as sole player
// and leader.
func NewRoom(key, joinCode, creatorKey, creatorName, connectionID string) *Room {
	return &Room{
		Key:       key,
		JoinCode:  joinCode,
		LeaderKey: creatorKey,
		Players: map[string]*PlayerSlot{
			creatorKey: {ConnectionID: connectionID, Name: creatorName, Seq: 0},
		},
		ReadyKeys:    make(map[string]bool),
		Characters:   make(map[string]Character),
		PhaseResults: make(map[int]*PhaseResult),
	}
}

// PlayerKeys returns all player keys in join order.
func (r *Room) PlayerKeys() []string {
	keys := make([]string, 0, len(r.Players))
	for k := range r.Players {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return r.Players[keys[i]].Seq < r.Players[keys[j]].Seq
	})
	return keys
}

// FindPlayerByName returns the key of the player with the given display
// name, compared case-insensitively.
func (r *Room) FindPlayerByName(name string) (string, bool) {
	for k, p := range r.Players {
		if strings.EqualFold(p.Name, name) {
			return k, true
		}
	}
	return "", false
}

// NextSeq returns the join-order index for the next player to be added.
func (r *Room) NextSeq() int {
	max := -1
	for _, p := range r.Players {
		if p.Seq > max {
			max = p.Seq
		}
	}
	return max + 1
}

// OnlineCount returns the number of connected players.
func (r *Room) OnlineCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Online() {
			n++
		}
	}
	return n
}

// Outcomes returns every resolved quest outcome across all phases,
// in phase order.
func (r *Room) Outcomes() []Result {
	var out []Result
	for phase := 1; phase <= TotalPhases; phase++ {
		if pr := r.PhaseResults[phase]; pr != nil {
			out = append(out, pr.Outcomes...)
		}
	}
	return out
}

// HasLed reports whether the player has already been round leader in the
// current phase.
func (r *Room) HasLed(playerKey string) bool {
	for _, k := range r.UsedLeaderKeys {
		if k == playerKey {
			return true
		}
	}
	return false
}
