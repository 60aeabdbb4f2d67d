// internal/room/round.go
package room

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrov/whosaid/internal/protocol"
)

// startNextRoundLocked advances to the next round: picks a random
// participant, then a random one of their answered prompts, broadcasts the
// round payload without the author, and arms the round timer. Past the last
// round it finishes the game instead. Assumes mu is held.
func (r *Room) startNextRoundLocked() {
	r.gen++
	r.currentRound++
	r.votes = make(map[uuid.UUID]uuid.UUID)
	r.resolved = false
	r.stopTimersLocked()

	if r.currentRound > r.totalRounds || len(r.participants) == 0 {
		r.finishLocked()
		return
	}

	author := r.participants[r.rng.Intn(len(r.participants))]
	answered := r.answers[author.ID]

	rd := &roundData{
		question: fallbackQuestion,
		kind:     AnswerText,
		answer:   fallbackAnswer,
		authorID: author.ID,
	}
	if len(answered) > 0 {
		indices := make([]int, 0, len(answered))
		for idx := range answered {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		idx := indices[r.rng.Intn(len(indices))]

		rd.answer = answered[idx]
		if idx >= 0 && idx < len(r.prompts) {
			rd.question = r.prompts[idx].Text
			rd.kind = r.prompts[idx].Kind
		}
	}
	r.round = rd

	r.broadcast(protocol.NewGameStarted(
		rd.question, rd.answer, string(rd.kind), r.currentRound, r.totalRounds,
	))

	gen := r.gen
	r.roundTimer = time.AfterFunc(r.RoundDuration, func() {
		r.forceResolve(gen)
	})
}

// forceResolve is the round timer callback. The generation check makes a
// stale timer a no-op even if it races resolution by quorum.
func (r *Room) forceResolve(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen || r.resolved || r.phase != PhasePlaying {
		return
	}
	r.resolveRoundLocked()
}

// SubmitVote records the voter's guess for the current round. Self-votes
// are silently dropped. Resolution triggers once everyone but the author
// could have voted (membership - 1 recorded votes).
func (r *Room) SubmitVote(voterID, guessedID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePlaying || r.round == nil || r.resolved {
		return
	}
	if voterID == guessedID {
		return
	}
	if r.indexOf(voterID) < 0 {
		return
	}
	r.votes[voterID] = guessedID

	if len(r.votes) >= len(r.participants)-1 {
		r.resolveRoundLocked()
	}
}

// resolveRoundLocked scores the round and reveals the author. Guarded by
// the resolved flag so quorum and timer expiry cannot both score it.
// Assumes mu is held.
func (r *Room) resolveRoundLocked() {
	r.resolved = true
	if r.roundTimer != nil {
		r.roundTimer.Stop()
		r.roundTimer = nil
	}

	votes := make(map[string]string, len(r.votes))
	for voter, guessed := range r.votes {
		if guessed == r.round.authorID {
			r.scores[voter]++
		}
		votes[voter.String()] = guessed.String()
	}

	r.broadcast(protocol.NewRoundResults(
		r.round.authorID.String(), votes, r.scoresLocked(),
	))

	gen := r.gen
	r.advanceTimer = time.AfterFunc(r.AdvanceDelay, func() {
		r.advance(gen)
	})
}

// advance is the inter-round delay callback.
func (r *Room) advance(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen || r.phase != PhasePlaying {
		return
	}
	if r.currentRound < r.totalRounds {
		r.startNextRoundLocked()
	} else {
		r.finishLocked()
	}
}

// finishLocked ends the game and broadcasts final scores. Assumes mu is held.
func (r *Room) finishLocked() {
	r.phase = PhaseFinished
	r.round = nil
	r.stopTimersLocked()
	r.broadcast(protocol.NewGameEnded(r.scoresLocked()))
}
