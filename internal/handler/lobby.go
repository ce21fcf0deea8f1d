package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/seojin-dev/avalon-server/internal/game"
	"github.com/seojin-dev/avalon-server/internal/room"
	"github.com/seojin-dev/avalon-server/internal/ws"
)

// LobbyHandler handles room creation, joining and the pre-game lobby.
type LobbyHandler struct {
	manager *room.Manager
	router  *Router
}

// NewLobbyHandler creates a new lobby handler.
func NewLobbyHandler(m *room.Manager, router *Router) *LobbyHandler {
	return &LobbyHandler{manager: m, router: router}
}

type createRoomRequest struct {
	DisplayName string `json:"display_name"`
}

// HandleCreateRoom handles room creation.
func (h *LobbyHandler) HandleCreateRoom(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req createRoomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.DisplayName == "" {
		client.SendMessage(ws.NewErrorMessage("display name is required"))
		return
	}

	snap, err := h.manager.Create(ctx, req.DisplayName, client.ID)
	if err != nil {
		slog.Error("create room failed", "client", client.ID, "error", err)
		client.SendMessage(ws.NewErrorMessage("could not create room"))
		return
	}

	h.router.Attach(client, snap.RoomKey, snap.PlayerKey)
	resp, _ := ws.NewMessage(ws.TypeCreateRoom, snap)
	client.SendMessage(resp)
}

type joinRoomRequest struct {
	DisplayName string `json:"display_name"`
	JoinCode    string `json:"join_code"`
}

// HandleJoinRoom handles joining an existing room, including the
// rejoin-by-name path for players who dropped mid-game.
func (h *LobbyHandler) HandleJoinRoom(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req joinRoomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.JoinCode == "" || req.DisplayName == "" {
		client.SendMessage(ws.NewErrorMessage("join code and display name are required"))
		return
	}

	snap, err := h.manager.Join(ctx, req.JoinCode, req.DisplayName, client.ID)
	if err != nil {
		client.SendMessage(ws.NewErrorMessage(joinErrorText(err)))
		return
	}

	h.router.Attach(client, snap.RoomKey, snap.PlayerKey)
	resp, _ := ws.NewMessage(ws.TypeJoinRoom, snap)
	client.SendMessage(resp)
}

// joinErrorText maps join validation errors to client-facing messages.
func joinErrorText(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return "room not found"
	case errors.Is(err, room.ErrNameTaken):
		return "that name is already taken"
	case errors.Is(err, room.ErrGameAlreadyStarted):
		return "the game has already started"
	}
	slog.Error("join room failed", "error", err)
	return "could not join room"
}

type getRoomPlayersRequest struct {
	RoomKey string `json:"room_key"`
}

type getRoomPlayersResponse struct {
	Players   []room.RosterEntry `json:"players"`
	LeaderKey string             `json:"leader_key"`
	ReadyKeys []string           `json:"ready_keys"`
}

// HandleGetRoomPlayers replies with the current roster to one connection.
func (h *LobbyHandler) HandleGetRoomPlayers(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req getRoomPlayersRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}
	s, ok := h.router.Session(client.ID)
	if !ok || (req.RoomKey != "" && req.RoomKey != s.RoomKey) {
		return
	}

	players, leaderKey, readyKeys, err := h.manager.Roster(ctx, s.RoomKey)
	if err != nil {
		slog.Debug("roster lookup failed", "room", s.RoomKey, "error", err)
		return
	}
	resp, _ := ws.NewMessage(ws.TypeGetRoomPlayers, getRoomPlayersResponse{
		Players:   players,
		LeaderKey: leaderKey,
		ReadyKeys: readyKeys,
	})
	client.SendMessage(resp)
}

// HandlePlayerReady records lobby readiness.
func (h *LobbyHandler) HandlePlayerReady(ctx context.Context, client *ws.Client, _ ws.Message) {
	s, ok := h.router.Session(client.ID)
	if !ok {
		return
	}
	if err := h.manager.MarkReady(ctx, s.RoomKey, s.PlayerKey); err != nil {
		slog.Debug("mark ready dropped", "room", s.RoomKey, "player", s.PlayerKey, "error", err)
	}
}

type startGameRequest struct {
	SelectedRoles []game.Role `json:"selected_roles"`
}

// HandleStartGame starts the game if the sender is the room leader.
func (h *LobbyHandler) HandleStartGame(ctx context.Context, client *ws.Client, msg ws.Message) {
	var req startGameRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}
	s, ok := h.router.Session(client.ID)
	if !ok {
		return
	}
	if err := h.manager.StartGame(ctx, s.RoomKey, s.PlayerKey, req.SelectedRoles); err != nil {
		slog.Debug("start game dropped", "room", s.RoomKey, "player", s.PlayerKey, "error", err)
	}
}
