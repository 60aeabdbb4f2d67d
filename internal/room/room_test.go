// internal/room/room_test.go
package room

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrov/whosaid/internal/protocol"
)

// mockBroadcaster collects broadcast payloads instead of sending them over
// the wire.
type mockBroadcaster struct {
	mu       sync.Mutex
	payloads []any
}

func (mb *mockBroadcaster) broadcastFn(payload any) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.payloads = append(mb.payloads, payload)
}

func (mb *mockBroadcaster) all() []any {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]any, len(mb.payloads))
	copy(out, mb.payloads)
	return out
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.payloads = nil
}

func (mb *mockBroadcaster) countReady() int {
	n := 0
	for _, p := range mb.all() {
		if _, ok := p.(protocol.AllPlayersReady); ok {
			n++
		}
	}
	return n
}

func (mb *mockBroadcaster) roundResults() []protocol.RoundResults {
	var out []protocol.RoundResults
	for _, p := range mb.all() {
		if rr, ok := p.(protocol.RoundResults); ok {
			out = append(out, rr)
		}
	}
	return out
}

func (mb *mockBroadcaster) gameStarted() []protocol.GameStarted {
	var out []protocol.GameStarted
	for _, p := range mb.all() {
		if gs, ok := p.(protocol.GameStarted); ok {
			out = append(out, gs)
		}
	}
	return out
}

func (mb *mockBroadcaster) gameEnded() []protocol.GameEnded {
	var out []protocol.GameEnded
	for _, p := range mb.all() {
		if ge, ok := p.(protocol.GameEnded); ok {
			out = append(out, ge)
		}
	}
	return out
}

func setupTestRoom(t *testing.T) (*Room, *mockBroadcaster) {
	t.Helper()
	r := New(DefaultPrompts)
	r.Seed(42)
	mb := &mockBroadcaster{}
	r.BroadcastFn = mb.broadcastFn
	return r, mb
}

func joinPlayers(t *testing.T, r *Room, n int) []Participant {
	t.Helper()
	players := make([]Participant, n)
	for i := 0; i < n; i++ {
		p, err := r.Join(fmt.Sprintf("player%d", i+1))
		require.NoError(t, err)
		players[i] = p
	}
	return players
}

// toPlaying walks the room through answer collection into the playing phase.
func toPlaying(t *testing.T, r *Room, players []Participant, totalRounds int) {
	t.Helper()
	require.NoError(t, r.BeginAnswerCollection(totalRounds))
	for _, p := range players {
		r.SubmitAnswer(p.ID, 0, "answer from "+p.Name)
		r.MarkReady(p.ID)
	}
	require.NoError(t, r.StartGame())
}

func TestJoinFirstPlayerBecomesHost(t *testing.T) {
	r, _ := setupTestRoom(t)
	players := joinPlayers(t, r, 3)

	assert.True(t, players[0].Host)
	assert.False(t, players[1].Host)
	assert.False(t, players[2].Host)
	assert.Equal(t, players[0].ID, r.HostID())
}

func TestJoinRejectsAtCapacity(t *testing.T) {
	r, _ := setupTestRoom(t)
	joinPlayers(t, r, MaxPlayers)

	_, err := r.Join("late player")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, MaxPlayers, r.Snapshot().Players)
}

func TestLeaveReassignsHostInInsertionOrder(t *testing.T) {
	r, _ := setupTestRoom(t)
	players := joinPlayers(t, r, 3)

	r.Leave(players[0].ID)

	// Second-joined player inherits the host flag.
	assert.Equal(t, players[1].ID, r.HostID())

	infos := r.Participants()
	hosts := 0
	for _, info := range infos {
		if info.IsHost {
			hosts++
		}
	}
	assert.Equal(t, 1, hosts)
}

func TestLeaveNonHostKeepsHost(t *testing.T) {
	r, _ := setupTestRoom(t)
	players := joinPlayers(t, r, 3)

	r.Leave(players[2].ID)

	assert.Equal(t, players[0].ID, r.HostID())
	assert.Equal(t, 2, r.Snapshot().Players)
}

func TestLeaveLastPlayerEmptiesRoom(t *testing.T) {
	r, _ := setupTestRoom(t)
	players := joinPlayers(t, r, 1)

	r.Leave(players[0].ID)

	assert.Equal(t, uuid.Nil, r.HostID())
	assert.Equal(t, 0, r.Snapshot().Players)
}

func TestBeginAnswerCollectionOnlyFromLobby(t *testing.T) {
	r, mb := setupTestRoom(t)
	joinPlayers(t, r, 2)

	require.NoError(t, r.BeginAnswerCollection(2))
	assert.Equal(t, PhaseCollecting, r.Phase())

	started := 0
	for _, p := range mb.all() {
		if _, ok := p.(protocol.QuestionsStarted); ok {
			started++
		}
	}
	assert.Equal(t, 1, started)

	assert.ErrorIs(t, r.BeginAnswerCollection(2), ErrWrongPhase)
}

func TestSubmitAnswerStoresOutOfRangeIndex(t *testing.T) {
	r, _ := setupTestRoom(t)
	players := joinPlayers(t, r, 2)
	require.NoError(t, r.BeginAnswerCollection(1))

	// Indices past the prompt bank are accepted and stored as-is.
	r.SubmitAnswer(players[0].ID, 999, "stored anyway")

	r.mu.Lock()
	got := r.answers[players[0].ID][999]
	r.mu.Unlock()
	assert.Equal(t, "stored anyway", got)

	infos := r.Participants()
	assert.True(t, infos[0].Answered)
}

func TestMarkReadyBroadcastsExactlyOnce(t *testing.T) {
	r, mb := setupTestRoom(t)
	players := joinPlayers(t, r, 3)
	require.NoError(t, r.BeginAnswerCollection(2))

	r.MarkReady(players[0].ID)
	r.MarkReady(players[1].ID)
	assert.Equal(t, 0, mb.countReady())

	r.MarkReady(players[2].ID)
	assert.Equal(t, 1, mb.countReady())
	assert.Equal(t, PhaseAwaitingReady, r.Phase())

	// Repeated calls after the transition must not re-fire the broadcast.
	r.MarkReady(players[0].ID)
	r.MarkReady(players[2].ID)
	assert.Equal(t, 1, mb.countReady())
}

func TestMarkReadyRequiresMoreThanOnePlayer(t *testing.T) {
	r, mb := setupTestRoom(t)
	players := joinPlayers(t, r, 1)
	require.NoError(t, r.BeginAnswerCollection(2))

	r.MarkReady(players[0].ID)

	assert.Equal(t, 0, mb.countReady())
	assert.Equal(t, PhaseCollecting, r.Phase())
}

func TestStartGameOutsideAwaitingReadyFails(t *testing.T) {
	r, mb := setupTestRoom(t)
	joinPlayers(t, r, 2)

	err := r.StartGame()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, PhaseLobby, r.Phase())
	assert.Empty(t, mb.gameStarted())
}

func TestGameStartedOmitsAuthor(t *testing.T) {
	r, mb := setupTestRoom(t)
	players := joinPlayers(t, r, 3)
	toPlaying(t, r, players, 2)

	started := mb.gameStarted()
	require.Len(t, started, 1)
	assert.Equal(t, 1, started[0].Round)
	assert.Equal(t, 2, started[0].TotalRounds)
	assert.NotEmpty(t, started[0].Question)
	assert.NotEmpty(t, started[0].Answer)
	// RoundResults, not GameStarted, carries the author.
	assert.Empty(t, mb.roundResults())
}

func TestSelfVoteIgnored(t *testing.T) {
	r, mb := setupTestRoom(t)
	players := joinPlayers(t, r, 2)
	toPlaying(t, r, players, 1)

	r.SubmitVote(players[0].ID, players[0].ID)
	r.SubmitVote(players[1].ID, players[1].ID)

	// Quorum for 2 players is 1 vote, so any recorded self-vote would have
	// resolved the round.
	assert.Empty(t, mb.roundResults())
}

func TestQuorumResolvesRoundAndScoresCorrectGuesses(t *testing.T) {
	r, mb := setupTestRoom(t)
	players := joinPlayers(t, r, 3)
	toPlaying(t, r, players, 2)
	mb.clear()

	// Everyone votes for player1; quorum is membership-1 = 2 votes.
	r.SubmitVote(players[1].ID, players[0].ID)
	assert.Empty(t, mb.roundResults())
	r.SubmitVote(players[2].ID, players[0].ID)

	results := mb.roundResults()
	require.Len(t, results, 1)
	rr := results[0]

	assert.NotEmpty(t, rr.CorrectPlayer)
	assert.Len(t, rr.Votes, 2)
	for voter, guessed := range rr.Votes {
		if guessed == rr.CorrectPlayer {
			assert.Equal(t, 1, rr.Scores[voter], "correct guess scores one point")
		} else {
			assert.Equal(t, 0, rr.Scores[voter], "wrong guess scores nothing")
		}
	}
	// The author's own score never moves during resolution.
	assert.Equal(t, 0, rr.Scores[rr.CorrectPlayer])
}

func TestVoteOverwriteDoesNotDoubleCount(t *testing.T) {
	r, mb := setupTestRoom(t)
	players := joinPlayers(t, r, 3)
	toPlaying(t, r, players, 1)
	mb.clear()

	r.SubmitVote(players[1].ID, players[0].ID)
	r.SubmitVote(players[1].ID, players[2].ID)
	assert.Empty(t, mb.roundResults(), "overwritten vote is still a single vote")

	r.SubmitVote(players[2].ID, players[0].ID)
	results := mb.roundResults()
	require.Len(t, results, 1)
	assert.Equal(t, players[2].ID.String(), results[0].Votes[players[1].ID.String()])
}

func TestTimerForcesResolutionWithZeroVotes(t *testing.T) {
	r, mb := setupTestRoom(t)
	r.RoundDuration = 50 * time.Millisecond
	r.AdvanceDelay = 50 * time.Millisecond
	players := joinPlayers(t, r, 3)
	toPlaying(t, r, players, 2)
	mb.clear()

	// Let the round timer expire with no votes cast.
	time.Sleep(75 * time.Millisecond)

	results := mb.roundResults()
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Votes)
	for _, score := range results[0].Scores {
		assert.Equal(t, 0, score)
	}

	// The game still advances to round 2.
	time.Sleep(50 * time.Millisecond)
	started := mb.gameStarted()
	require.NotEmpty(t, started)
	assert.Equal(t, 2, started[len(started)-1].Round)
}

func TestResolutionHappensAtMostOncePerRound(t *testing.T) {
	r, mb := setupTestRoom(t)
	r.RoundDuration = 20 * time.Millisecond
	r.AdvanceDelay = time.Hour // hold the round after resolution
	players := joinPlayers(t, r, 3)
	toPlaying(t, r, players, 1)
	mb.clear()

	// Resolve by quorum, then let the timer fire into the resolved round.
	r.SubmitVote(players[1].ID, players[0].ID)
	r.SubmitVote(players[2].ID, players[0].ID)
	time.Sleep(50 * time.Millisecond)

	assert.Len(t, mb.roundResults(), 1)
}

func TestVotesAfterResolutionIgnored(t *testing.T) {
	r, mb := setupTestRoom(t)
	r.AdvanceDelay = time.Hour
	players := joinPlayers(t, r, 3)
	toPlaying(t, r, players, 1)
	mb.clear()

	r.SubmitVote(players[1].ID, players[0].ID)
	r.SubmitVote(players[2].ID, players[0].ID)
	require.Len(t, mb.roundResults(), 1)

	r.SubmitVote(players[1].ID, players[2].ID)
	assert.Len(t, mb.roundResults(), 1)
}

func TestGameEndsAfterFinalRound(t *testing.T) {
	r, mb := setupTestRoom(t)
	r.AdvanceDelay = 20 * time.Millisecond
	players := joinPlayers(t, r, 3)
	toPlaying(t, r, players, 1)
	mb.clear()

	r.SubmitVote(players[1].ID, players[0].ID)
	r.SubmitVote(players[2].ID, players[0].ID)
	require.Len(t, mb.roundResults(), 1)

	time.Sleep(50 * time.Millisecond)

	ended := mb.gameEnded()
	require.Len(t, ended, 1)
	assert.Len(t, ended[0].Scores, 3)
	assert.Equal(t, PhaseFinished, r.Phase())
}

func TestFallbackRoundWhenAuthorHasNoAnswers(t *testing.T) {
	r, mb := setupTestRoom(t)
	players := joinPlayers(t, r, 2)
	require.NoError(t, r.BeginAnswerCollection(1))
	// Nobody answers anything; both just finish.
	r.MarkReady(players[0].ID)
	r.MarkReady(players[1].ID)
	require.NoError(t, r.StartGame())

	started := mb.gameStarted()
	require.Len(t, started, 1)
	assert.Equal(t, fallbackQuestion, started[0].Question)
	assert.Equal(t, fallbackAnswer, started[0].Answer)
	assert.Equal(t, string(AnswerText), started[0].AnswerType)
}

func TestResetReturnsToLobbyFromPlaying(t *testing.T) {
	r, mb := setupTestRoom(t)
	r.RoundDuration = 20 * time.Millisecond
	r.AdvanceDelay = 20 * time.Millisecond
	players := joinPlayers(t, r, 3)
	toPlaying(t, r, players, 5)

	r.Reset()

	snap := r.Snapshot()
	assert.Equal(t, PhaseLobby, snap.Phase)
	assert.Equal(t, 0, snap.Round)
	assert.Equal(t, 3, snap.Players)
	// Identity and host assignment survive the reset.
	assert.Equal(t, players[0].ID, r.HostID())
	for _, info := range r.Participants() {
		assert.False(t, info.Ready)
		assert.False(t, info.Answered)
	}

	mb.clear()
	// Pending timers were invalidated; nothing fires into the lobby.
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, mb.all())
}

func TestResetZeroesScores(t *testing.T) {
	r, mb := setupTestRoom(t)
	r.AdvanceDelay = time.Hour
	players := joinPlayers(t, r, 3)
	toPlaying(t, r, players, 1)

	r.SubmitVote(players[1].ID, players[0].ID)
	r.SubmitVote(players[2].ID, players[0].ID)
	require.Len(t, mb.roundResults(), 1)

	r.Reset()
	mb.clear()

	// Play again and check scores restarted from zero.
	toPlaying(t, r, players, 1)
	r.SubmitVote(players[1].ID, players[0].ID)
	r.SubmitVote(players[2].ID, players[0].ID)
	results := mb.roundResults()
	require.Len(t, results, 1)
	total := 0
	for _, s := range results[0].Scores {
		total += s
	}
	assert.LessOrEqual(t, total, 2, "scores carry nothing over from before the reset")
}

func TestResetFromFinishedRestartsCleanly(t *testing.T) {
	r, mb := setupTestRoom(t)
	r.AdvanceDelay = 10 * time.Millisecond
	players := joinPlayers(t, r, 2)
	toPlaying(t, r, players, 1)

	r.SubmitVote(players[1].ID, players[0].ID)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, PhaseFinished, r.Phase())

	r.Reset()
	assert.Equal(t, PhaseLobby, r.Phase())

	reset := 0
	for _, p := range mb.all() {
		if _, ok := p.(protocol.GameReset); ok {
			reset++
		}
	}
	assert.Equal(t, 1, reset)
}

func TestSnapshotTracksRoundProgress(t *testing.T) {
	r, _ := setupTestRoom(t)
	players := joinPlayers(t, r, 3)

	snap := r.Snapshot()
	assert.Equal(t, PhaseLobby, snap.Phase)
	assert.Equal(t, 0, snap.Round)

	toPlaying(t, r, players, 4)
	snap = r.Snapshot()
	assert.Equal(t, PhasePlaying, snap.Phase)
	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, 4, snap.TotalRounds)
}
