package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/seojin-dev/avalon-server/internal/room"
	"github.com/seojin-dev/avalon-server/internal/ws"
)

// session is a connection's resolved (room, player) pair.
type session struct {
	RoomKey   string
	PlayerKey string
}

// Router dispatches incoming messages to the appropriate handler and
// tracks which connection belongs to which room and player. It implements
// room.Notifier for outbound delivery.
type Router struct {
	lobby    *LobbyHandler
	gameplay *GameplayHandler

	// sessions: client ID -> (room, player). groups: room -> player -> client.
	// Pure routing caches, rebuilt from live connections; never persisted.
	sessions map[string]session
	groups   map[string]map[string]*ws.Client
	mu       sync.RWMutex
}

// NewRouter creates a message router. The manager is created by the
// caller with this router as its Notifier, then injected via Bind.
func NewRouter() *Router {
	return &Router{
		sessions: make(map[string]session),
		groups:   make(map[string]map[string]*ws.Client),
	}
}

// Bind wires the lifecycle manager into the router's handlers.
func (r *Router) Bind(m *room.Manager) {
	r.lobby = NewLobbyHandler(m, r)
	r.gameplay = NewGameplayHandler(m, r)
}

// Attach joins a connection to a room's broadcast group.
func (r *Router) Attach(client *ws.Client, roomKey, playerKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[client.ID] = session{RoomKey: roomKey, PlayerKey: playerKey}
	group, ok := r.groups[roomKey]
	if !ok {
		group = make(map[string]*ws.Client)
		r.groups[roomKey] = group
	}
	group[playerKey] = client
}

// Detach removes a connection from its room's broadcast group.
func (r *Router) Detach(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[clientID]
	if !ok {
		return
	}
	delete(r.sessions, clientID)
	if group, ok := r.groups[s.RoomKey]; ok {
		delete(group, s.PlayerKey)
		if len(group) == 0 {
			delete(r.groups, s.RoomKey)
		}
	}
}

// Session returns the (room, player) pair for a client, if any.
func (r *Router) Session(clientID string) (session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[clientID]
	return s, ok
}

// ToRoom sends a message to every connection joined to a room.
func (r *Router) ToRoom(roomKey string, msg ws.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, client := range r.groups[roomKey] {
		client.SendMessage(msg)
	}
}

// ToPlayer sends a message to one player's connection.
func (r *Router) ToPlayer(roomKey, playerKey string, msg ws.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if client, ok := r.groups[roomKey][playerKey]; ok {
		client.SendMessage(msg)
	}
}

// HandleMessage parses and routes an incoming client message.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		cm.Client.SendMessage(ws.NewErrorMessage("invalid message format"))
		return
	}

	ctx := context.Background()

	switch msg.Type {
	// Lobby messages
	case ws.TypeCreateRoom:
		r.lobby.HandleCreateRoom(ctx, cm.Client, msg)
	case ws.TypeJoinRoom:
		r.lobby.HandleJoinRoom(ctx, cm.Client, msg)
	case ws.TypeGetRoomPlayers:
		r.lobby.HandleGetRoomPlayers(ctx, cm.Client, msg)
	case ws.TypePlayerReady:
		r.lobby.HandlePlayerReady(ctx, cm.Client, msg)
	case ws.TypeStartGame:
		r.lobby.HandleStartGame(ctx, cm.Client, msg)

	// Gameplay messages
	case ws.TypeProposeTeam:
		r.gameplay.HandleProposeTeam(ctx, cm.Client, msg)
	case ws.TypeLeaderSelect:
		r.gameplay.HandleLeaderSelect(ctx, cm.Client, msg)
	case ws.TypeCommitQuest:
		r.gameplay.HandleCommitQuestVote(ctx, cm.Client, msg)
	case ws.TypeResultVote:
		r.gameplay.HandleResultVote(ctx, cm.Client, msg)
	case ws.TypeAdvanceRound:
		r.gameplay.HandleAdvanceRound(ctx, cm.Client, msg)
	case ws.TypeAdvancePhase:
		r.gameplay.HandleAdvancePhase(ctx, cm.Client, msg)
	case ws.TypeExit:
		r.gameplay.HandleExit(ctx, cm.Client, msg)
	case ws.TypeExitGame:
		r.gameplay.HandleExitGame(ctx, cm.Client, msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
		cm.Client.SendMessage(ws.NewErrorMessage("unknown message type: " + msg.Type))
	}
}

// HandleDisconnect marks the player offline and detaches the connection.
func (r *Router) HandleDisconnect(client *ws.Client) {
	s, ok := r.Session(client.ID)
	if !ok {
		return
	}
	r.Detach(client.ID)
	if err := r.gameplay.manager.Exit(context.Background(), s.RoomKey, s.PlayerKey); err != nil {
		slog.Debug("exit on disconnect", "client", client.ID, "error", err)
	}
}
