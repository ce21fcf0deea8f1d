package room

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojin-dev/avalon-server/internal/game"
	"github.com/seojin-dev/avalon-server/internal/store"
	"github.com/seojin-dev/avalon-server/internal/ws"
)

// mockNotifier records outbound messages for assertions.
type mockNotifier struct {
	mu       sync.Mutex
	byRoom   map[string][]ws.Message
	byPlayer map[string][]ws.Message // roomKey + "/" + playerKey
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{
		byRoom:   make(map[string][]ws.Message),
		byPlayer: make(map[string][]ws.Message),
	}
}

func (n *mockNotifier) ToRoom(roomKey string, msg ws.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.byRoom[roomKey] = append(n.byRoom[roomKey], msg)
}

func (n *mockNotifier) ToPlayer(roomKey, playerKey string, msg ws.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := roomKey + "/" + playerKey
	n.byPlayer[key] = append(n.byPlayer[key], msg)
}

// roomCount returns how many messages of a type were broadcast to a room.
func (n *mockNotifier) roomCount(roomKey, msgType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, msg := range n.byRoom[roomKey] {
		if msg.Type == msgType {
			count++
		}
	}
	return count
}

// lastRoomMsg returns the most recent room broadcast of a type.
func (n *mockNotifier) lastRoomMsg(roomKey, msgType string) (ws.Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	msgs := n.byRoom[roomKey]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == msgType {
			return msgs[i], true
		}
	}
	return ws.Message{}, false
}

func (n *mockNotifier) playerCount(roomKey, playerKey, msgType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, msg := range n.byPlayer[roomKey+"/"+playerKey] {
		if msg.Type == msgType {
			count++
		}
	}
	return count
}

func newTestManager() (*Manager, *mockNotifier) {
	n := newMockNotifier()
	m := NewManager(store.NewMemoryStore(), n)
	m.roleRevealDelay = 0
	m.resultRevealDelay = 0
	m.transitionSettle = time.Millisecond
	return m, n
}

// setupRoom creates a room with count players named P1..Pn, all ready.
// Returned keys are in join order; keys[0] is the creator and leader.
func setupRoom(t *testing.T, m *Manager, count int) (roomKey string, keys []string) {
	t.Helper()
	ctx := context.Background()

	snap, err := m.Create(ctx, "P1", "conn-1")
	require.NoError(t, err)
	roomKey = snap.RoomKey

	names := []string{"", "P2", "P3", "P4", "P5", "P6", "P7", "P8", "P9", "P10"}
	for i := 2; i <= count; i++ {
		_, err := m.Join(ctx, snap.JoinCode, names[i-1], "conn-"+names[i-1])
		require.NoError(t, err)
	}

	r, err := m.store.Load(ctx, roomKey)
	require.NoError(t, err)
	keys = r.PlayerKeys()
	require.Len(t, keys, count)

	for _, k := range keys {
		require.NoError(t, m.MarkReady(ctx, roomKey, k))
	}
	return roomKey, keys
}

// waitInitialRound waits for the scheduled post-start round_update so
// later broadcast counts are stable.
func waitInitialRound(t *testing.T, n *mockNotifier, roomKey string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return n.roomCount(roomKey, ws.TypeRoundUpdate) >= 1
	}, time.Second, 5*time.Millisecond)
}

func loadRoom(t *testing.T, m *Manager, roomKey string) *game.Room {
	t.Helper()
	r, err := m.store.Load(context.Background(), roomKey)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r
}

func saveRoom(t *testing.T, m *Manager, r *game.Room) {
	t.Helper()
	require.NoError(t, m.store.Save(context.Background(), r))
}

func TestCreate(t *testing.T) {
	m, _ := newTestManager()

	snap, err := m.Create(context.Background(), "Alice", "conn-a")
	require.NoError(t, err)

	assert.NotEmpty(t, snap.RoomKey)
	assert.Len(t, snap.JoinCode, game.JoinCodeLength)
	assert.NotEmpty(t, snap.PlayerKey)
	assert.True(t, snap.IsLeader)
	assert.False(t, snap.GameStarted)

	r := loadRoom(t, m, snap.RoomKey)
	assert.Equal(t, snap.PlayerKey, r.LeaderKey)
	assert.Len(t, r.Players, 1)
}

func TestJoin_RoomNotFound(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.Join(context.Background(), "000000", "Bob", "conn-b")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoin_NameTakenCaseInsensitive(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	snap, err := m.Create(ctx, "Alice", "conn-a")
	require.NoError(t, err)

	_, err = m.Join(ctx, snap.JoinCode, "ALICE", "conn-b")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestJoin_GameAlreadyStarted(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	r := loadRoom(t, m, roomKey)
	_, err := m.Join(ctx, r.JoinCode, "Latecomer", "conn-x")
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
}

func TestJoin_ReclaimsOfflinePlayer(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))
	require.NoError(t, m.Exit(ctx, roomKey, keys[1]))

	r := loadRoom(t, m, roomKey)
	snap, err := m.Join(ctx, r.JoinCode, "P2", "conn-new")
	require.NoError(t, err)

	assert.Equal(t, keys[1], snap.PlayerKey, "reclaim must reuse the offline player's key")
	assert.True(t, snap.GameStarted)
	require.NotNil(t, snap.Character)
	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, 1, snap.Phase)

	r = loadRoom(t, m, roomKey)
	assert.Nil(t, r.WaitingForReconnect)
	assert.True(t, r.Players[keys[1]].Online())
}

func TestMarkReady_Idempotent(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()

	snap, err := m.Create(ctx, "Alice", "conn-a")
	require.NoError(t, err)

	require.NoError(t, m.MarkReady(ctx, snap.RoomKey, snap.PlayerKey))
	require.NoError(t, m.MarkReady(ctx, snap.RoomKey, snap.PlayerKey))

	r := loadRoom(t, m, snap.RoomKey)
	assert.Len(t, r.ReadyKeys, 1)
	assert.Equal(t, 2, n.roomCount(snap.RoomKey, ws.TypeReadyUpdate))

	assert.ErrorIs(t, m.MarkReady(ctx, snap.RoomKey, "nobody"), ErrUnknownPlayer)
}

func TestStartGame_NotLeader(t *testing.T) {
	m, _ := newTestManager()
	roomKey, keys := setupRoom(t, m, 5)

	err := m.StartGame(context.Background(), roomKey, keys[1], nil)
	assert.ErrorIs(t, err, ErrNotLeader)
}

func TestStartGame_AssignsBalancedRoles(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)

	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	r := loadRoom(t, m, roomKey)
	assert.True(t, r.GameStarted)
	assert.Equal(t, 1, r.Round)
	assert.Equal(t, 1, r.Phase)
	assert.Contains(t, keys, r.RoundLeaderKey)
	assert.Equal(t, []string{r.RoundLeaderKey}, r.UsedLeaderKeys)

	good, evil := 0, 0
	for _, k := range keys {
		c, ok := r.Characters[k]
		require.True(t, ok, "player %s has no character", k)
		if c.Team == game.TeamGood {
			good++
		} else {
			evil++
		}
	}
	assert.Equal(t, 3, good)
	assert.Equal(t, 2, evil)

	assert.Equal(t, 1, n.roomCount(roomKey, ws.TypeGameStarted))

	// Role reveal is scheduled; every player gets a private view.
	require.Eventually(t, func() bool {
		for _, k := range keys {
			if n.playerCount(roomKey, k, ws.TypeCharacterAssigned) != 1 {
				return false
			}
		}
		return n.roomCount(roomKey, ws.TypeRoundUpdate) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStartGame_SecondStartRejected(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)

	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))
	assert.ErrorIs(t, m.StartGame(ctx, roomKey, keys[0], nil), ErrGameAlreadyStarted)
}

func TestProposeTeam_ResolvesOnceAllVotesIn(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	// Everyone nominates the first two players.
	for _, k := range keys {
		require.NoError(t, m.ProposeTeam(ctx, roomKey, k, []string{keys[0], keys[1]}))
	}

	assert.Equal(t, 1, n.roomCount(roomKey, ws.TypeTeamVoted))

	msg, ok := n.lastRoomMsg(roomKey, ws.TypeTeamVoted)
	require.True(t, ok)
	var payload teamVotedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.ElementsMatch(t, []string{keys[0], keys[1]}, payload.Team)
	assert.Equal(t, 5, payload.VoteTally[keys[0]])

	r := loadRoom(t, m, roomKey)
	assert.Nil(t, r.Proposal, "vote record must be cleared after resolution")
}

func TestProposeTeam_RepeatVoteDoesNotChangeDenominator(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	// The first player votes three times; still only one ballot counted.
	for range 3 {
		require.NoError(t, m.ProposeTeam(ctx, roomKey, keys[0], []string{keys[0]}))
	}
	assert.Equal(t, 0, n.roomCount(roomKey, ws.TypeTeamVoted))

	r := loadRoom(t, m, roomKey)
	require.NotNil(t, r.Proposal)
	assert.Len(t, r.Proposal.Voters, 1)
	assert.Equal(t, 1, r.Proposal.Counts[keys[0]])

	for _, k := range keys[1:] {
		require.NoError(t, m.ProposeTeam(ctx, roomKey, k, []string{keys[0]}))
	}
	assert.Equal(t, 1, n.roomCount(roomKey, ws.TypeTeamVoted))
}

func TestProposeTeam_TieBreakByJoinOrder(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	// Everyone nominates themselves: five-way tie at one vote each.
	for _, k := range keys {
		require.NoError(t, m.ProposeTeam(ctx, roomKey, k, []string{k}))
	}

	msg, ok := n.lastRoomMsg(roomKey, ws.TypeTeamVoted)
	require.True(t, ok)
	var payload teamVotedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))

	// Phase 1 with 5 players needs a team of 2; ties break by join order.
	assert.Equal(t, []string{keys[0], keys[1]}, payload.Team)
}

func TestLeaderSelect_Validation(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	r := loadRoom(t, m, roomKey)
	leader := r.RoundLeaderKey
	notLeader := keys[0]
	if notLeader == leader {
		notLeader = keys[1]
	}

	err := m.LeaderSelect(ctx, roomKey, notLeader, []string{keys[0], keys[1]})
	assert.ErrorIs(t, err, ErrNotLeader)

	err = m.LeaderSelect(ctx, roomKey, leader, []string{keys[0]})
	assert.ErrorIs(t, err, ErrInvalidTeamSize)

	err = m.LeaderSelect(ctx, roomKey, leader, []string{keys[0], "ghost"})
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	require.NoError(t, m.LeaderSelect(ctx, roomKey, leader, []string{keys[0], keys[1]}))
	assert.Equal(t, 1, n.roomCount(roomKey, ws.TypeLeaderVoted))

	msg, _ := n.lastRoomMsg(roomKey, ws.TypeLeaderVoted)
	var payload leaderVotedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, []string{keys[0], keys[1]}, payload.ChosenKeys)
	assert.Len(t, payload.WaitingKeys, 3)
}

// selectTeam puts the given players on the quest via the current leader.
func selectTeam(t *testing.T, m *Manager, roomKey string, team []string) {
	t.Helper()
	r := loadRoom(t, m, roomKey)
	require.NoError(t, m.LeaderSelect(context.Background(), roomKey, r.RoundLeaderKey, team))
}

func TestCommitQuestVote_ResolvesAtTeamSize(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))
	selectTeam(t, m, roomKey, []string{keys[0], keys[1]})

	// Non-member ballots are rejected.
	err := m.CommitQuestVote(ctx, roomKey, keys[2], game.ResultFail)
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	require.NoError(t, m.CommitQuestVote(ctx, roomKey, keys[0], game.ResultSuccess))
	assert.Equal(t, 0, n.roomCount(roomKey, ws.TypeQuestVoted))

	require.NoError(t, m.CommitQuestVote(ctx, roomKey, keys[1], game.ResultFail))
	assert.Equal(t, 1, n.roomCount(roomKey, ws.TypeQuestVoted))

	msg, _ := n.lastRoomMsg(roomKey, ws.TypeQuestVoted)
	var payload questVotedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, game.ResultFail, payload.Result)
	assert.Equal(t, 1, payload.Success)
	assert.Equal(t, 1, payload.Fail)

	r := loadRoom(t, m, roomKey)
	assert.Nil(t, r.QuestVote, "vote record must be cleared after resolution")
}

func TestCommitQuestVote_TwoFailExceptionSevenPlayers(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 7)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	// Move the game to phase 4, where 7+ player games need two fails.
	r := loadRoom(t, m, roomKey)
	r.Phase = 4
	saveRoom(t, m, r)
	selectTeam(t, m, roomKey, keys[:4])

	require.NoError(t, m.CommitQuestVote(ctx, roomKey, keys[0], game.ResultFail))
	for _, k := range keys[1:4] {
		require.NoError(t, m.CommitQuestVote(ctx, roomKey, k, game.ResultSuccess))
	}

	msg, ok := n.lastRoomMsg(roomKey, ws.TypeQuestVoted)
	require.True(t, ok)
	var payload questVotedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, game.ResultSuccess, payload.Result, "one fail must not sabotage phase 4 with 7 players")
	assert.Equal(t, 1, payload.Fail)
}

func TestResultVote_ResolvesAtTeamSize(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	// Phase 1 with 5 players resolves after 2 result votes.
	require.NoError(t, m.ResultVote(ctx, roomKey, keys[0], game.ResultSuccess, 1))
	assert.Equal(t, 0, n.roomCount(roomKey, ws.TypeInformResult))

	require.NoError(t, m.ResultVote(ctx, roomKey, keys[1], game.ResultSuccess, 1))

	require.Eventually(t, func() bool {
		return n.roomCount(roomKey, ws.TypeInformResult) == 1
	}, time.Second, 5*time.Millisecond)

	r := loadRoom(t, m, roomKey)
	require.NotNil(t, r.PhaseResults[1])
	assert.Equal(t, []game.Result{game.ResultSuccess}, r.PhaseResults[1].Outcomes)
	assert.Equal(t, 2, r.PhaseResults[1].Success)
}

func TestRotateLeader_NoRepeatsUntilReset(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	r := loadRoom(t, m, roomKey)
	seen := map[string]bool{r.RoundLeaderKey: true}

	for range 4 {
		m.rotateLeader(r)
		assert.False(t, seen[r.RoundLeaderKey], "leader %s repeated within phase", r.RoundLeaderKey)
		seen[r.RoundLeaderKey] = true
	}
	assert.Len(t, r.UsedLeaderKeys, 5)

	// All players have led; the next rotation starts a fresh cycle.
	m.rotateLeader(r)
	assert.Len(t, r.UsedLeaderKeys, 1)
}

func TestAdvanceRound_TransitioningGuard(t *testing.T) {
	m, _ := newTestManager()
	m.transitionSettle = time.Hour // keep the flag set
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	require.NoError(t, m.AdvanceRound(ctx, roomKey, keys[0]))
	assert.Error(t, m.AdvanceRound(ctx, roomKey, keys[0]), "overlapping advance must be rejected")

	r := loadRoom(t, m, roomKey)
	assert.Equal(t, 2, r.Round)
	assert.True(t, r.Transitioning)
}

func TestAdvanceRound_SettleClearsFlag(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	require.NoError(t, m.AdvanceRound(ctx, roomKey, keys[0]))

	require.Eventually(t, func() bool {
		return !loadRoom(t, m, roomKey).Transitioning
	}, time.Second, 5*time.Millisecond)
}

func TestAdvancePhase_AdvancesAndRotates(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))
	waitInitialRound(t, n, roomKey)

	before := n.roomCount(roomKey, ws.TypeRoundUpdate)
	require.NoError(t, m.AdvancePhase(ctx, roomKey, keys[0]))

	r := loadRoom(t, m, roomKey)
	assert.Equal(t, 2, r.Phase)
	assert.Equal(t, 1, r.Round)
	assert.Len(t, r.UsedLeaderKeys, 1, "leader history resets on phase advance")
	assert.Equal(t, before+1, n.roomCount(roomKey, ws.TypeRoundUpdate))
	assert.Equal(t, 0, n.roomCount(roomKey, ws.TypeGameOver))
}

func TestAdvancePhase_GameOverGoodWins(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	r := loadRoom(t, m, roomKey)
	for phase := 1; phase <= 3; phase++ {
		r.PhaseResults[phase] = &game.PhaseResult{
			Success:  2,
			Outcomes: []game.Result{game.ResultSuccess},
		}
	}
	r.Phase = 3
	saveRoom(t, m, r)
	waitInitialRound(t, n, roomKey)

	before := n.roomCount(roomKey, ws.TypeRoundUpdate)
	require.NoError(t, m.AdvancePhase(ctx, roomKey, keys[0]))

	assert.Equal(t, 1, n.roomCount(roomKey, ws.TypeGameOver))
	assert.Equal(t, before, n.roomCount(roomKey, ws.TypeRoundUpdate), "no round setup after game over")

	msg, _ := n.lastRoomMsg(roomKey, ws.TypeGameOver)
	var payload gameOverPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, game.TeamGood, payload.Winner)
	assert.Equal(t, 3, payload.SuccessCount)
}

func TestAdvancePhase_GameOverEvilWins(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	r := loadRoom(t, m, roomKey)
	for phase := 1; phase <= 3; phase++ {
		r.PhaseResults[phase] = &game.PhaseResult{
			Fail:     1,
			Outcomes: []game.Result{game.ResultFail},
		}
	}
	saveRoom(t, m, r)

	require.NoError(t, m.AdvancePhase(ctx, roomKey, keys[0]))

	msg, ok := n.lastRoomMsg(roomKey, ws.TypeGameOver)
	require.True(t, ok)
	var payload gameOverPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, game.TeamEvil, payload.Winner)
	assert.Equal(t, 3, payload.FailCount)
}

func TestExitAndReconnect_RestoresSnapshot(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	before := loadRoom(t, m, roomKey)
	character := before.Characters[keys[1]]

	require.NoError(t, m.Exit(ctx, roomKey, keys[1]))

	r := loadRoom(t, m, roomKey)
	assert.False(t, r.Players[keys[1]].Online())
	require.NotNil(t, r.WaitingForReconnect)
	assert.Equal(t, keys[1], r.WaitingForReconnect.PlayerKey)
	assert.Equal(t, 1, n.roomCount(roomKey, ws.TypePlayerLoggedOff))

	snap, err := m.Reconnect(ctx, roomKey, keys[1], "conn-new")
	require.NoError(t, err)

	assert.Equal(t, keys[1], snap.PlayerKey)
	require.NotNil(t, snap.Character)
	assert.Equal(t, character, *snap.Character)
	assert.Equal(t, before.Round, snap.Round)
	assert.Equal(t, before.Phase, snap.Phase)
	assert.Equal(t, before.RoundLeaderKey, snap.RoundLeaderKey)

	r = loadRoom(t, m, roomKey)
	assert.Nil(t, r.WaitingForReconnect)
	assert.True(t, r.Players[keys[1]].Online())
	assert.Equal(t, 1, n.roomCount(roomKey, ws.TypePlayerReconnected))
}

func TestExit_CastVotesKeepCounting(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, keys := setupRoom(t, m, 5)
	require.NoError(t, m.StartGame(ctx, roomKey, keys[0], nil))

	// The first player votes, then drops. Their ballot still counts
	// toward resolution.
	require.NoError(t, m.ProposeTeam(ctx, roomKey, keys[0], []string{keys[0]}))
	require.NoError(t, m.Exit(ctx, roomKey, keys[0]))

	for _, k := range keys[1:] {
		require.NoError(t, m.ProposeTeam(ctx, roomKey, k, []string{keys[0]}))
	}
	assert.Equal(t, 1, n.roomCount(roomKey, ws.TypeTeamVoted))
}

func TestExitGame_DeletesRoom(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()
	roomKey, _ := setupRoom(t, m, 5)

	require.NoError(t, m.ExitGame(ctx, roomKey))

	assert.Equal(t, 1, n.roomCount(roomKey, ws.TypeExitToHome))
	r, err := m.store.Load(ctx, roomKey)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestFullGame_FivePlayerScenario(t *testing.T) {
	m, n := newTestManager()
	ctx := context.Background()

	// A creates, B-E join by code, everyone readies up, A starts.
	snap, err := m.Create(ctx, "A", "conn-a")
	require.NoError(t, err)
	roomKey := snap.RoomKey
	for _, name := range []string{"B", "C", "D", "E"} {
		_, err := m.Join(ctx, snap.JoinCode, name, "conn-"+name)
		require.NoError(t, err)
	}
	keys := loadRoom(t, m, roomKey).PlayerKeys()
	for _, k := range keys {
		require.NoError(t, m.MarkReady(ctx, roomKey, k))
	}
	require.NoError(t, m.StartGame(ctx, roomKey, snap.PlayerKey, nil))

	r := loadRoom(t, m, roomKey)
	good, evil := 0, 0
	assigned := make(map[game.Role]int)
	for _, k := range keys {
		c := r.Characters[k]
		assigned[c.Role]++
		if c.Team == game.TeamGood {
			good++
		} else {
			evil++
		}
	}
	assert.Equal(t, 3, good)
	assert.Equal(t, 2, evil)
	assert.Equal(t, 3, assigned[game.RoleLoyal])
	assert.Equal(t, 2, assigned[game.RoleMinion])
	assert.Equal(t, 2, game.TeamSize(len(keys), r.Phase))

	// Round 1: proposal, leader pick, quest commit, result reveal.
	for _, k := range keys {
		require.NoError(t, m.ProposeTeam(ctx, roomKey, k, []string{keys[0], keys[1]}))
	}
	selectTeam(t, m, roomKey, []string{keys[0], keys[1]})
	require.NoError(t, m.CommitQuestVote(ctx, roomKey, keys[0], game.ResultSuccess))
	require.NoError(t, m.CommitQuestVote(ctx, roomKey, keys[1], game.ResultSuccess))
	require.NoError(t, m.ResultVote(ctx, roomKey, keys[0], game.ResultSuccess, 1))
	require.NoError(t, m.ResultVote(ctx, roomKey, keys[1], game.ResultSuccess, 1))

	require.Eventually(t, func() bool {
		return n.roomCount(roomKey, ws.TypeInformResult) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.AdvancePhase(ctx, roomKey, keys[0]))
	r = loadRoom(t, m, roomKey)
	assert.Equal(t, 2, r.Phase)
	assert.Equal(t, 1, r.Round)
	assert.Equal(t, []game.Result{game.ResultSuccess}, r.Outcomes())
}
