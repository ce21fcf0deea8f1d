package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/seojin-dev/avalon-server/internal/game"
	"github.com/seojin-dev/avalon-server/internal/room"
	"github.com/seojin-dev/avalon-server/internal/ws"
)

// GameplayHandler handles in-game messages. Game events are
// fire-and-forget: invalid or stale ones are dropped without touching
// room state, they never error the connection.
type GameplayHandler struct {
	manager *room.Manager
	router  *Router
}

// NewGameplayHandler creates a new gameplay handler.
func NewGameplayHandler(m *room.Manager, router *Router) *GameplayHandler {
	return &GameplayHandler{manager: m, router: router}
}

// resolve returns the sender's session, dropping events from connections
// that never joined a room or that present a mismatching room key.
func (h *GameplayHandler) resolve(client *ws.Client, roomKey string) (session, bool) {
	s, ok := h.router.Session(client.ID)
	if !ok || (roomKey != "" && roomKey != s.RoomKey) {
		slog.Debug("dropping event with stale session", "client", client.ID)
		return session{}, false
	}
	return s, true
}

type proposeTeamRequest struct {
	RoomKey       string   `json:"room_key"`
	CandidateKeys []string `json:"candidate_keys"`
}

// HandleProposeTeam records a team-proposal ballot.
func (h *GameplayHandler) HandleProposeTeam(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req proposeTeamRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}
	s, ok := h.resolve(client, req.RoomKey)
	if !ok {
		return
	}
	if err := h.manager.ProposeTeam(ctx, s.RoomKey, s.PlayerKey, req.CandidateKeys); err != nil {
		slog.Debug("propose team dropped", "room", s.RoomKey, "error", err)
	}
}

type leaderSelectRequest struct {
	RoomKey    string   `json:"room_key"`
	ChosenKeys []string `json:"chosen_keys"`
}

// HandleLeaderSelect records the round leader's final team pick.
func (h *GameplayHandler) HandleLeaderSelect(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req leaderSelectRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}
	s, ok := h.resolve(client, req.RoomKey)
	if !ok {
		return
	}
	if err := h.manager.LeaderSelect(ctx, s.RoomKey, s.PlayerKey, req.ChosenKeys); err != nil {
		slog.Debug("leader select dropped", "room", s.RoomKey, "error", err)
	}
}

type voteRequest struct {
	RoomKey string `json:"room_key"`
	Vote    string `json:"vote"`
	Phase   int    `json:"phase,omitempty"`
}

func parseVote(s string) game.Result {
	if s == string(game.ResultFail) {
		return game.ResultFail
	}
	return game.ResultSuccess
}

// HandleCommitQuestVote records a quest-team member's secret ballot.
func (h *GameplayHandler) HandleCommitQuestVote(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req voteRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}
	s, ok := h.resolve(client, req.RoomKey)
	if !ok {
		return
	}
	if err := h.manager.CommitQuestVote(ctx, s.RoomKey, s.PlayerKey, parseVote(req.Vote)); err != nil {
		slog.Debug("quest vote dropped", "room", s.RoomKey, "error", err)
	}
}

// HandleResultVote records a reveal-stage result ballot.
func (h *GameplayHandler) HandleResultVote(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req voteRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}
	s, ok := h.resolve(client, req.RoomKey)
	if !ok {
		return
	}
	if err := h.manager.ResultVote(ctx, s.RoomKey, s.PlayerKey, parseVote(req.Vote), req.Phase); err != nil {
		slog.Debug("result vote dropped", "room", s.RoomKey, "error", err)
	}
}

type advanceRequest struct {
	RoomKey string `json:"room_key"`
}

// HandleAdvanceRound rotates the round leader within the current phase.
func (h *GameplayHandler) HandleAdvanceRound(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req advanceRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}
	s, ok := h.resolve(client, req.RoomKey)
	if !ok {
		return
	}
	if err := h.manager.AdvanceRound(ctx, s.RoomKey, s.PlayerKey); err != nil {
		slog.Debug("advance round dropped", "room", s.RoomKey, "error", err)
	}
}

// HandleAdvancePhase moves to the next quest or ends the game.
func (h *GameplayHandler) HandleAdvancePhase(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req advanceRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}
	s, ok := h.resolve(client, req.RoomKey)
	if !ok {
		return
	}
	if err := h.manager.AdvancePhase(ctx, s.RoomKey, s.PlayerKey); err != nil {
		slog.Debug("advance phase dropped", "room", s.RoomKey, "error", err)
	}
}

// HandleExit marks the sender offline but keeps their seat for rejoin.
func (h *GameplayHandler) HandleExit(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req advanceRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}
	s, ok := h.resolve(client, req.RoomKey)
	if !ok {
		return
	}
	h.router.Detach(client.ID)
	if err := h.manager.Exit(ctx, s.RoomKey, s.PlayerKey); err != nil {
		slog.Debug("exit dropped", "room", s.RoomKey, "error", err)
	}
}

// HandleExitGame tears the room down after game over.
func (h *GameplayHandler) HandleExitGame(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req advanceRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}
	s, ok := h.resolve(client, req.RoomKey)
	if !ok {
		return
	}
	if err := h.manager.ExitGame(ctx, s.RoomKey); err != nil {
		slog.Debug("exit game dropped", "room", s.RoomKey, "error", err)
	}
}
