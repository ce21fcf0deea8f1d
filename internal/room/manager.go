package room

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/seojin-dev/avalon-server/internal/game"
	"github.com/seojin-dev/avalon-server/internal/store"
	"github.com/seojin-dev/avalon-server/internal/ws"
)

const joinCodeMaxRetries = 100

// Notifier delivers outbound messages to a room's broadcast group or to a
// single player. The connection router implements it.
type Notifier interface {
	ToRoom(roomKey string, msg ws.Message)
	ToPlayer(roomKey, playerKey string, msg ws.Message)
}

// Manager owns the room state machine. Every operation acquires the
// per-room mutex before loading and releases it after saving, which gives
// a total order to concurrent events for the same room.
type Manager struct {
	store  store.RoomStore
	notify Notifier
	locks  *keyedMutex
	sched  *scheduler

	// Reveal pacing, overridable in tests.
	roleRevealDelay   time.Duration
	resultRevealDelay time.Duration
	transitionSettle  time.Duration
}

// NewManager creates a room manager on top of a store and a notifier.
func NewManager(s store.RoomStore, n Notifier) *Manager {
	return &Manager{
		store:             s,
		notify:            n,
		locks:             newKeyedMutex(),
		sched:             newScheduler(),
		roleRevealDelay:   game.RoleRevealDelay,
		resultRevealDelay: game.ResultRevealDelay,
		transitionSettle:  game.TransitionSettle,
	}
}

// Create makes a new room in lobby state with the creator as sole player
// and leader.
func (m *Manager) Create(ctx context.Context, displayName, connectionID string) (*Snapshot, error) {
	joinCode, err := m.uniqueJoinCode(ctx)
	if err != nil {
		return nil, err
	}

	roomKey := uuid.New().String()
	playerKey := uuid.New().String()

	unlock := m.locks.Lock(roomKey)
	defer unlock()

	r := game.NewRoom(roomKey, joinCode, playerKey, displayName, connectionID)
	if err := m.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("saving new room: %w", err)
	}

	slog.Info("room created", "room", roomKey, "code", joinCode, "player", displayName)
	return m.snapshot(r, playerKey), nil
}

// Join adds a player to the room with the given join code. If an offline
// player with the same display name exists, that player key is reclaimed
// and the full game snapshot is returned so the client can resume.
func (m *Manager) Join(ctx context.Context, joinCode, displayName, connectionID string) (*Snapshot, error) {
	found, err := m.store.FindByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrRoomNotFound
	}

	unlock := m.locks.Lock(found.Key)
	defer unlock()

	// Reload under the lock; the code lookup above raced other operations.
	r, err := m.store.Load(ctx, found.Key)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRoomNotFound
	}

	if existingKey, ok := r.FindPlayerByName(displayName); ok {
		if r.Players[existingKey].Online() {
			return nil, ErrNameTaken
		}
		return m.reattach(ctx, r, existingKey, connectionID)
	}

	if r.GameStarted {
		return nil, ErrGameAlreadyStarted
	}

	playerKey := uuid.New().String()
	r.Players[playerKey] = &game.PlayerSlot{
		ConnectionID: connectionID,
		Name:         displayName,
		Seq:          r.NextSeq(),
	}
	if err := m.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("saving room on join: %w", err)
	}

	m.broadcastRoster(r)
	slog.Info("player joined room", "room", r.Key, "player", displayName)
	return m.snapshot(r, playerKey), nil
}

// Reconnect reattaches a connection to an existing player key and returns
// the full resume snapshot.
func (m *Manager) Reconnect(ctx context.Context, roomKey, playerKey, connectionID string) (*Snapshot, error) {
	unlock := m.locks.Lock(roomKey)
	defer unlock()

	r, err := m.store.Load(ctx, roomKey)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRoomNotFound
	}
	if _, ok := r.Players[playerKey]; !ok {
		return nil, ErrUnknownPlayer
	}
	return m.reattach(ctx, r, playerKey, connectionID)
}

// reattach marks a player online again. Caller holds the room lock.
func (m *Manager) reattach(ctx context.Context, r *game.Room, playerKey, connectionID string) (*Snapshot, error) {
	slot := r.Players[playerKey]
	slot.ConnectionID = connectionID
	if r.WaitingForReconnect != nil && r.WaitingForReconnect.PlayerKey == playerKey {
		r.WaitingForReconnect = nil
	}
	if err := m.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("saving room on reconnect: %w", err)
	}

	msg, _ := ws.NewMessage(ws.TypePlayerReconnected, playerReconnectedPayload{Name: slot.Name})
	m.notify.ToRoom(r.Key, msg)
	m.broadcastRoster(r)

	slog.Info("player reconnected", "room", r.Key, "player", slot.Name)
	return m.snapshot(r, playerKey), nil
}

// MarkReady records a player's lobby readiness. Idempotent; unknown
// players are ignored.
func (m *Manager) MarkReady(ctx context.Context, roomKey, playerKey string) error {
	return m.withRoom(ctx, roomKey, func(r *game.Room) error {
		if _, ok := r.Players[playerKey]; !ok {
			return ErrUnknownPlayer
		}
		r.ReadyKeys[playerKey] = true
		return nil
	}, func(r *game.Room) {
		keys := make([]string, 0, len(r.ReadyKeys))
		for k := range r.ReadyKeys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msg, _ := ws.NewMessage(ws.TypeReadyUpdate, readyUpdatePayload{ReadyKeys: keys})
		m.notify.ToRoom(r.Key, msg)
	})
}

// StartGame assigns characters and opens phase 1, round 1. Only the room
// leader may start, and at least one player must be ready.
func (m *Manager) StartGame(ctx context.Context, roomKey, playerKey string, selectedRoles []game.Role) error {
	return m.withRoom(ctx, roomKey, func(r *game.Room) error {
		if playerKey != r.LeaderKey {
			return ErrNotLeader
		}
		if r.GameStarted {
			return ErrGameAlreadyStarted
		}
		if len(r.ReadyKeys) < 1 {
			return fmt.Errorf("no players ready")
		}

		playerKeys := r.PlayerKeys()
		r.Characters = game.BuildCharacters(playerKeys, selectedRoles)
		r.GameStarted = true
		r.Round = 1
		r.Phase = 1
		r.RoundLeaderKey = playerKeys[rand.Intn(len(playerKeys))]
		r.UsedLeaderKeys = []string{r.RoundLeaderKey}
		return nil
	}, func(r *game.Room) {
		started, _ := ws.NewMessage(ws.TypeGameStarted, struct{}{})
		m.notify.ToRoom(r.Key, started)
		slog.Info("game started", "room", r.Key, "players", len(r.Players), "leader", r.RoundLeaderKey)

		// Clients play a card-flip animation before roles land.
		m.sched.After(r.Key, m.roleRevealDelay, func() {
			for viewerKey := range r.Players {
				msg, _ := ws.NewMessage(ws.TypeCharacterAssigned, characterAssignedPayload{
					Character: r.Characters[viewerKey],
					Players:   m.visiblePlayers(r, viewerKey),
					AllRoles:  game.AllRoles(),
				})
				m.notify.ToPlayer(r.Key, viewerKey, msg)
			}
			m.broadcastRound(r)
		})
	})
}

// ProposeTeam records one player's nomination of desired questers. Each
// player votes once per round; when everyone has voted, the top nominees
// by vote count form the suggested team.
func (m *Manager) ProposeTeam(ctx context.Context, roomKey, playerKey string, candidateKeys []string) error {
	var resolved *teamVotedPayload
	return m.withRoom(ctx, roomKey, func(r *game.Room) error {
		if !r.GameStarted {
			return errGameNotStarted
		}
		if _, ok := r.Players[playerKey]; !ok {
			return ErrUnknownPlayer
		}
		if r.Proposal == nil {
			r.Proposal = &game.ProposalVote{
				Counts: make(map[string]int),
				Voters: make(map[string]bool),
			}
		}
		if r.Proposal.Voters[playerKey] {
			// Repeat ballots do not change the denominator.
			return nil
		}
		r.Proposal.Voters[playerKey] = true
		for _, candidate := range candidateKeys {
			if _, ok := r.Players[candidate]; ok {
				r.Proposal.Counts[candidate]++
			}
		}

		if len(r.Proposal.Voters) < len(r.Players) {
			return nil
		}

		team := topCandidates(r, r.Proposal.Counts, game.TeamSize(len(r.Players), r.Phase))
		resolved = &teamVotedPayload{Team: team, VoteTally: r.Proposal.Counts}
		r.Proposal = nil
		return nil
	}, func(r *game.Room) {
		if resolved == nil {
			return
		}
		msg, _ := ws.NewMessage(ws.TypeTeamVoted, *resolved)
		m.notify.ToRoom(r.Key, msg)
		slog.Info("team proposal resolved", "room", r.Key, "team", resolved.Team)
	})
}

// topCandidates picks the n most-nominated players. Ties break by join
// order, which keeps the selection deterministic across runs.
func topCandidates(r *game.Room, counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return r.Players[keys[i]].Seq < r.Players[keys[j]].Seq
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// LeaderSelect records the round leader's binding choice of who goes on
// the quest.
func (m *Manager) LeaderSelect(ctx context.Context, roomKey, playerKey string, chosenKeys []string) error {
	return m.withRoom(ctx, roomKey, func(r *game.Room) error {
		if !r.GameStarted {
			return errGameNotStarted
		}
		if playerKey != r.RoundLeaderKey {
			return ErrNotLeader
		}
		if len(chosenKeys) != game.TeamSize(len(r.Players), r.Phase) {
			return ErrInvalidTeamSize
		}
		for _, k := range chosenKeys {
			if _, ok := r.Players[k]; !ok {
				return ErrUnknownPlayer
			}
		}
		r.Selection = chosenKeys
		return nil
	}, func(r *game.Room) {
		chosen := make(map[string]bool, len(r.Selection))
		for _, k := range r.Selection {
			chosen[k] = true
		}
		var waiting []string
		for _, k := range r.PlayerKeys() {
			if !chosen[k] {
				waiting = append(waiting, k)
			}
		}
		msg, _ := ws.NewMessage(ws.TypeLeaderVoted, leaderVotedPayload{
			ChosenKeys:  r.Selection,
			WaitingKeys: waiting,
		})
		m.notify.ToRoom(r.Key, msg)
	})
}

// CommitQuestVote records a quest-team member's secret success/fail
// ballot. Once the whole team has voted, the quest commit resolves and the
// raw tally is broadcast without voter identities.
func (m *Manager) CommitQuestVote(ctx context.Context, roomKey, playerKey string, vote game.Result) error {
	var resolved *questVotedPayload
	return m.withRoom(ctx, roomKey, func(r *game.Room) error {
		if !r.GameStarted || len(r.Selection) == 0 {
			return errGameNotStarted
		}
		if !onTeam(r.Selection, playerKey) {
			return ErrUnknownPlayer
		}
		if r.QuestVote == nil {
			r.QuestVote = &game.QuestVote{Voters: make(map[string]bool)}
		}
		if r.QuestVote.Voters[playerKey] {
			return nil
		}
		r.QuestVote.Voters[playerKey] = true
		switch vote {
		case game.ResultFail:
			r.QuestVote.Fail++
		default:
			r.QuestVote.Success++
		}

		if len(r.QuestVote.Voters) < len(r.Selection) {
			return nil
		}

		result := game.QuestOutcome(r.QuestVote.Success, r.QuestVote.Fail, len(r.Players), r.Phase)
		resolved = &questVotedPayload{
			Result:  result,
			Success: r.QuestVote.Success,
			Fail:    r.QuestVote.Fail,
		}
		r.QuestVote = nil
		return nil
	}, func(r *game.Room) {
		if resolved == nil {
			return
		}
		msg, _ := ws.NewMessage(ws.TypeQuestVoted, *resolved)
		m.notify.ToRoom(r.Key, msg)
		slog.Info("quest commit resolved", "room", r.Key, "result", resolved.Result)
	})
}

func onTeam(selection []string, playerKey string) bool {
	for _, k := range selection {
		if k == playerKey {
			return true
		}
	}
	return false
}

// ResultVote tallies the broadcast-visible reveal stage of a quest. The
// tally resolves once it reaches the phase's team size; the outcome is
// announced after the reveal delay so clients can pace the suspense
// animation.
func (m *Manager) ResultVote(ctx context.Context, roomKey, playerKey string, vote game.Result, phase int) error {
	var resolved *informResultPayload
	return m.withRoom(ctx, roomKey, func(r *game.Room) error {
		if !r.GameStarted {
			return errGameNotStarted
		}
		if _, ok := r.Players[playerKey]; !ok {
			return ErrUnknownPlayer
		}
		if phase < 1 || phase > game.TotalPhases {
			return fmt.Errorf("phase %d out of range", phase)
		}
		pr := r.PhaseResults[phase]
		if pr == nil {
			pr = &game.PhaseResult{}
			r.PhaseResults[phase] = pr
		}
		switch vote {
		case game.ResultFail:
			pr.Fail++
		default:
			pr.Success++
		}

		need := game.TeamSize(len(r.Players), phase)
		done := len(pr.Outcomes)
		if pr.Success+pr.Fail < need*(done+1) {
			return nil
		}

		result := game.QuestOutcome(pr.Success, pr.Fail, len(r.Players), phase)
		pr.Outcomes = append(pr.Outcomes, result)
		resolved = &informResultPayload{
			Result:       result,
			SuccessCount: pr.Success,
			FailCount:    pr.Fail,
		}
		return nil
	}, func(r *game.Room) {
		if resolved == nil {
			return
		}
		payload := *resolved
		m.sched.After(r.Key, m.resultRevealDelay, func() {
			msg, _ := ws.NewMessage(ws.TypeInformResult, payload)
			m.notify.ToRoom(r.Key, msg)
		})
	})
}

// AdvanceRound rotates the round leader within the current phase. Guarded
// by the transitioning flag against overlapping advance calls.
func (m *Manager) AdvanceRound(ctx context.Context, roomKey, playerKey string) error {
	return m.withRoom(ctx, roomKey, func(r *game.Room) error {
		if !r.GameStarted {
			return errGameNotStarted
		}
		if r.Transitioning {
			return fmt.Errorf("round transition in progress")
		}
		r.Transitioning = true
		m.rotateLeader(r)
		r.Round++
		r.Selection = nil
		r.Proposal = nil
		r.QuestVote = nil
		return nil
	}, func(r *game.Room) {
		m.broadcastRound(r)
		m.scheduleSettle(r.Key)
	})
}

// AdvancePhase moves to the next quest, or ends the game when either side
// has reached the win threshold.
func (m *Manager) AdvancePhase(ctx context.Context, roomKey, playerKey string) error {
	var over *gameOverPayload
	return m.withRoom(ctx, roomKey, func(r *game.Room) error {
		if !r.GameStarted {
			return errGameNotStarted
		}
		if r.Transitioning {
			return fmt.Errorf("phase transition in progress")
		}
		r.Transitioning = true
		r.Phase++
		r.Round = 1
		r.Selection = nil
		r.Proposal = nil
		r.QuestVote = nil

		winner, successes, fails, done := game.Winner(r.Outcomes())
		if done {
			over = &gameOverPayload{Winner: winner, SuccessCount: successes, FailCount: fails}
			return nil
		}

		r.UsedLeaderKeys = nil
		m.rotateLeader(r)
		return nil
	}, func(r *game.Room) {
		if over != nil {
			msg, _ := ws.NewMessage(ws.TypeGameOver, *over)
			m.notify.ToRoom(r.Key, msg)
			slog.Info("game over", "room", r.Key, "winner", over.Winner)
			return
		}
		m.broadcastRound(r)
		m.scheduleSettle(r.Key)
	})
}

// rotateLeader picks a new round leader among players who have not led in
// the current phase, clearing the history once everyone has had a turn.
// Caller holds the room lock.
func (m *Manager) rotateLeader(r *game.Room) {
	var candidates []string
	for _, k := range r.PlayerKeys() {
		if !r.HasLed(k) {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		r.UsedLeaderKeys = nil
		candidates = r.PlayerKeys()
	}
	r.RoundLeaderKey = candidates[rand.Intn(len(candidates))]
	r.UsedLeaderKeys = append(r.UsedLeaderKeys, r.RoundLeaderKey)
}

// scheduleSettle clears the transitioning flag after the settle delay.
func (m *Manager) scheduleSettle(roomKey string) {
	m.sched.After(roomKey, m.transitionSettle, func() {
		err := m.withRoom(context.Background(), roomKey, func(r *game.Room) error {
			r.Transitioning = false
			return nil
		}, nil)
		if err != nil {
			slog.Warn("clearing transition flag", "room", roomKey, "error", err)
		}
	})
}

// Exit marks a player offline. The player record stays so the same key
// can be reclaimed; votes already cast keep counting toward resolution.
func (m *Manager) Exit(ctx context.Context, roomKey, playerKey string) error {
	var name string
	return m.withRoom(ctx, roomKey, func(r *game.Room) error {
		slot, ok := r.Players[playerKey]
		if !ok {
			return ErrUnknownPlayer
		}
		name = slot.Name
		slot.ConnectionID = ""
		r.WaitingForReconnect = &game.ReconnectWait{
			PlayerKey: playerKey,
			Name:      name,
			Since:     time.Now(),
		}
		return nil
	}, func(r *game.Room) {
		msg, _ := ws.NewMessage(ws.TypePlayerLoggedOff, playerLoggedOffPayload{Name: name})
		m.notify.ToRoom(r.Key, msg)
		m.broadcastRoster(r)
		slog.Info("player logged off", "room", r.Key, "player", name)
	})
}

// ExitGame tears a room down after game over: everyone is sent home, the
// pending timers are cancelled and the document is deleted.
func (m *Manager) ExitGame(ctx context.Context, roomKey string) error {
	unlock := m.locks.Lock(roomKey)
	r, err := m.store.Load(ctx, roomKey)
	if err != nil || r == nil {
		unlock()
		return err
	}

	msg, _ := ws.NewMessage(ws.TypeExitToHome, struct{}{})
	m.notify.ToRoom(roomKey, msg)

	m.sched.CancelRoom(roomKey)
	err = m.store.Delete(ctx, roomKey)
	unlock()
	m.locks.Forget(roomKey)

	slog.Info("room closed", "room", roomKey)
	return err
}

// Roster returns the current player list of a room.
func (m *Manager) Roster(ctx context.Context, roomKey string) ([]RosterEntry, string, []string, error) {
	unlock := m.locks.Lock(roomKey)
	defer unlock()

	r, err := m.store.Load(ctx, roomKey)
	if err != nil {
		return nil, "", nil, err
	}
	if r == nil {
		return nil, "", nil, ErrRoomNotFound
	}

	ready := make([]string, 0, len(r.ReadyKeys))
	for k := range r.ReadyKeys {
		ready = append(ready, k)
	}
	sort.Strings(ready)
	return m.roster(r), r.LeaderKey, ready, nil
}

// withRoom runs mutate on the room under its lock, saves, then runs after
// outside the critical mutation but still under the lock so broadcasts
// observe the saved state. Validation errors skip the save.
func (m *Manager) withRoom(ctx context.Context, roomKey string, mutate func(*game.Room) error, after func(*game.Room)) error {
	unlock := m.locks.Lock(roomKey)
	defer unlock()

	r, err := m.store.Load(ctx, roomKey)
	if err != nil {
		return err
	}
	if r == nil {
		return ErrRoomNotFound
	}

	if err := mutate(r); err != nil {
		return err
	}
	if err := m.store.Save(ctx, r); err != nil {
		return fmt.Errorf("saving room %s: %w", roomKey, err)
	}
	if after != nil {
		after(r)
	}
	return nil
}

func (m *Manager) roster(r *game.Room) []RosterEntry {
	entries := make([]RosterEntry, 0, len(r.Players))
	for _, k := range r.PlayerKeys() {
		slot := r.Players[k]
		entries = append(entries, RosterEntry{
			Name:      slot.Name,
			PlayerKey: k,
			Online:    slot.Online(),
		})
	}
	return entries
}

func (m *Manager) broadcastRoster(r *game.Room) {
	msg, _ := ws.NewMessage(ws.TypeRoomUpdate, roomUpdatePayload{Players: m.roster(r)})
	m.notify.ToRoom(r.Key, msg)
}

func (m *Manager) broadcastRound(r *game.Room) {
	msg, _ := ws.NewMessage(ws.TypeRoundUpdate, roundUpdatePayload{
		RoundLeaderKey:   r.RoundLeaderKey,
		Round:            r.Round,
		Phase:            r.Phase,
		RequiredTeamSize: game.TeamSize(len(r.Players), r.Phase),
		TeamSizesByPhase: game.TeamSizes(len(r.Players)),
		GameStarted:      r.GameStarted,
	})
	m.notify.ToRoom(r.Key, msg)
}

// visiblePlayers builds the player list as one viewer is allowed to see
// it, resolving each target's role through the visibility rules.
func (m *Manager) visiblePlayers(r *game.Room, viewerKey string) []VisiblePlayer {
	viewer := r.Characters[viewerKey].Role
	players := make([]VisiblePlayer, 0, len(r.Players))
	for _, k := range r.PlayerKeys() {
		slot := r.Players[k]
		label := ""
		if k != viewerKey {
			label = game.VisibleRole(viewer, r.Characters[k].Role)
		}
		players = append(players, VisiblePlayer{
			Name:        slot.Name,
			PlayerKey:   k,
			VisibleRole: label,
		})
	}
	return players
}

// snapshot builds the resume state for one player. Caller holds the room
// lock.
func (m *Manager) snapshot(r *game.Room, playerKey string) *Snapshot {
	s := &Snapshot{
		RoomKey:     r.Key,
		JoinCode:    r.JoinCode,
		PlayerKey:   playerKey,
		IsLeader:    playerKey == r.LeaderKey,
		GameStarted: r.GameStarted,
		Players:     m.visiblePlayers(r, playerKey),
	}
	if r.GameStarted {
		if c, ok := r.Characters[playerKey]; ok {
			s.Character = &c
		}
		s.RoundLeaderKey = r.RoundLeaderKey
		s.Round = r.Round
		s.Phase = r.Phase
		s.RequiredTeamSize = game.TeamSize(len(r.Players), r.Phase)
		s.TeamSizesByPhase = game.TeamSizes(len(r.Players))
	}
	return s
}

// uniqueJoinCode generates a join code not currently held by any room.
func (m *Manager) uniqueJoinCode(ctx context.Context) (string, error) {
	for range joinCodeMaxRetries {
		code := randomJoinCode()
		existing, err := m.store.FindByJoinCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique join code")
}
