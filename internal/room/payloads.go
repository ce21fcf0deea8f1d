package room

import "github.com/seojin-dev/avalon-server/internal/game"

// RosterEntry is one player in a room_update payload.
type RosterEntry struct {
	Name      string `json:"name"`
	PlayerKey string `json:"player_key"`
	Online    bool   `json:"online"`
}

type roomUpdatePayload struct {
	Players []RosterEntry `json:"players"`
}

type readyUpdatePayload struct {
	ReadyKeys []string `json:"ready_keys"`
}

// VisiblePlayer is a player as seen by one particular viewer.
type VisiblePlayer struct {
	Name        string `json:"name"`
	PlayerKey   string `json:"player_key"`
	VisibleRole string `json:"visible_role"`
}

type characterAssignedPayload struct {
	Character game.Character  `json:"character"`
	Players   []VisiblePlayer `json:"players"`
	AllRoles  []game.Role     `json:"all_roles"`
}

type roundUpdatePayload struct {
	RoundLeaderKey   string                `json:"round_leader_key"`
	Round            int                   `json:"round"`
	Phase            int                   `json:"phase"`
	RequiredTeamSize int                   `json:"required_team_size"`
	TeamSizesByPhase [game.TotalPhases]int `json:"team_sizes_by_phase"`
	GameStarted      bool                  `json:"game_started"`
}

type teamVotedPayload struct {
	Team      []string       `json:"team"`
	VoteTally map[string]int `json:"vote_tally"`
}

type leaderVotedPayload struct {
	ChosenKeys  []string `json:"chosen_keys"`
	WaitingKeys []string `json:"waiting_keys"`
}

type questVotedPayload struct {
	Result  game.Result `json:"result"`
	Success int         `json:"success"`
	Fail    int         `json:"fail"`
}

type informResultPayload struct {
	Result       game.Result `json:"result"`
	SuccessCount int         `json:"success_count"`
	FailCount    int         `json:"fail_count"`
}

type gameOverPayload struct {
	Winner       game.Team `json:"winner"`
	SuccessCount int       `json:"success_count"`
	FailCount    int       `json:"fail_count"`
}

type playerLoggedOffPayload struct {
	Name string `json:"name"`
}

type playerReconnectedPayload struct {
	Name string `json:"name"`
}

// Snapshot is the full resume state returned on join, reclaim and
// reconnect so a client can recover without replaying history.
type Snapshot struct {
	RoomKey          string                `json:"room_key"`
	JoinCode         string                `json:"join_code"`
	PlayerKey        string                `json:"player_key"`
	IsLeader         bool                  `json:"is_leader"`
	GameStarted      bool                  `json:"game_started"`
	Character        *game.Character       `json:"character,omitempty"`
	Players          []VisiblePlayer       `json:"players"`
	RoundLeaderKey   string                `json:"round_leader_key,omitempty"`
	Round            int                   `json:"round,omitempty"`
	Phase            int                   `json:"phase,omitempty"`
	RequiredTeamSize int                   `json:"required_team_size,omitempty"`
	TeamSizesByPhase [game.TotalPhases]int `json:"team_sizes_by_phase,omitempty"`
}
