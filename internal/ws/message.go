package ws

import "encoding/json"

// Message represents a WebSocket message with type-based routing.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message types - client to server
const (
	TypeCreateRoom     = "create_room"
	TypeJoinRoom       = "join_room"
	TypeGetRoomPlayers = "get_room_players"
	TypePlayerReady    = "player_ready"
	TypeStartGame      = "start_game"
	TypeProposeTeam    = "propose_team"
	TypeLeaderSelect   = "leader_select"
	TypeCommitQuest    = "commit_quest_vote"
	TypeResultVote     = "result_vote"
	TypeAdvanceRound   = "advance_round"
	TypeAdvancePhase   = "advance_phase"
	TypeExit           = "exit"
	TypeExitGame       = "exit_game"
)

// Message types - server to clients
const (
	TypeRoomUpdate        = "room_update"
	TypeReadyUpdate       = "player_ready_update"
	TypeGameStarted       = "game_started"
	TypeCharacterAssigned = "character_assigned"
	TypeRoundUpdate       = "round_update"
	TypeTeamVoted         = "team_voted"
	TypeLeaderVoted       = "leader_voted"
	TypeQuestVoted        = "quest_voted"
	TypeInformResult      = "inform_result"
	TypeGameOver          = "game_over"
	TypePlayerLoggedOff   = "player_logged_off"
	TypePlayerReconnected = "player_reconnected"
	TypeExitToHome        = "exit_to_home"
	TypeError             = "error"
)

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Message string `json:"message"`
}

// NewErrorMessage creates a Message with an error payload.
func NewErrorMessage(msg string) Message {
	data, _ := json.Marshal(ErrorMessage{Message: msg})
	return Message{Type: TypeError, Data: data}
}

// NewMessage creates a Message with a typed payload.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}
