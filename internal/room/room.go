// internal/room/room.go
package room

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrov/whosaid/internal/protocol"
)

// Phase is the room's lifecycle state. Transitions are one-directional
// except Reset, which returns to the lobby from anywhere.
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseCollecting    Phase = "collecting-answers"
	PhaseAwaitingReady Phase = "awaiting-ready"
	PhasePlaying       Phase = "playing"
	PhaseFinished      Phase = "finished"
)

// MaxPlayers caps room membership.
const MaxPlayers = 10

const (
	// DefaultRoundDuration is 30s of gameplay plus a 5s network and
	// rendering buffer before the round is force-resolved.
	DefaultRoundDuration = 35 * time.Second
	// DefaultAdvanceDelay is how long round results stay on screen before
	// the next round starts.
	DefaultAdvanceDelay = 3 * time.Second
)

var (
	// ErrRoomFull rejects a join at capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrNotReady rejects StartGame outside the awaiting-ready phase.
	ErrNotReady = errors.New("room is not ready to start")
	// ErrWrongPhase rejects a phase transition from an invalid state.
	ErrWrongPhase = errors.New("operation not valid in current phase")
)

// Participant is one connected player. Owned exclusively by the Room.
type Participant struct {
	ID       uuid.UUID
	Name     string
	Host     bool
	Ready    bool
	Answered bool
}

// roundData is the live round: its question, the chosen answer, and the
// hidden author. Replaced at the start of each round.
type roundData struct {
	question string
	kind     AnswerKind
	answer   string
	authorID uuid.UUID
}

// Snapshot is the read-only view exposed for liveness probing.
type Snapshot struct {
	Players     int   `json:"players"`
	Phase       Phase `json:"phase"`
	Round       int   `json:"round"`
	TotalRounds int   `json:"totalRounds"`
}

// Room holds the entire state for the single live game session. All
// mutation happens under mu; timer callbacks re-acquire it and are guarded
// against staleness by the round generation counter, so no Room method is
// ever preempted mid-execution by another.
type Room struct {
	mu sync.Mutex

	phase        Phase
	participants []*Participant // insertion order; index 0 tie-break for host reassignment
	answers      map[uuid.UUID]map[int]string
	scores       map[uuid.UUID]int
	votes        map[uuid.UUID]uuid.UUID
	prompts      []Prompt

	totalRounds  int
	currentRound int
	round        *roundData
	resolved     bool

	// gen increments on every round start and reset. Timer callbacks
	// capture it and bail out when it no longer matches, so a stale timer
	// can never re-resolve or re-advance state.
	gen          int
	roundTimer   *time.Timer
	advanceTimer *time.Timer

	rng *rand.Rand

	RoundDuration time.Duration
	AdvanceDelay  time.Duration

	// BroadcastFn sends a payload to every open connection. If nil, no
	// broadcast is done.
	BroadcastFn func(payload any)
}

// New builds an empty lobby-phase room over the given prompt bank.
func New(prompts []Prompt) *Room {
	if prompts == nil {
		prompts = DefaultPrompts
	}
	return &Room{
		phase:         PhaseLobby,
		answers:       make(map[uuid.UUID]map[int]string),
		scores:        make(map[uuid.UUID]int),
		votes:         make(map[uuid.UUID]uuid.UUID),
		prompts:       prompts,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		RoundDuration: DefaultRoundDuration,
		AdvanceDelay:  DefaultAdvanceDelay,
	}
}

// Seed replaces the room's random source, for reproducible selection.
func (r *Room) Seed(seed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng = rand.New(rand.NewSource(seed))
}

// Join adds a participant. The first to join becomes host. The caller
// composes and sends any join notifications.
func (r *Room) Join(name string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.participants) >= MaxPlayers {
		return Participant{}, ErrRoomFull
	}

	p := &Participant{
		ID:   uuid.New(),
		Name: name,
		Host: len(r.participants) == 0,
	}
	r.participants = append(r.participants, p)
	r.answers[p.ID] = make(map[int]string)
	r.scores[p.ID] = 0
	return *p, nil
}

// Leave removes the participant and all their per-participant state. If the
// host departs and others remain, the earliest-joined remaining participant
// becomes host.
func (r *Room) Leave(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return
	}
	wasHost := r.participants[idx].Host
	r.participants = append(r.participants[:idx], r.participants[idx+1:]...)
	delete(r.answers, id)
	delete(r.scores, id)
	delete(r.votes, id)

	if wasHost && len(r.participants) > 0 {
		r.participants[0].Host = true
	}
}

// HostID returns the current host's id, or uuid.Nil for an empty room.
func (r *Room) HostID() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.Host {
			return p.ID
		}
	}
	return uuid.Nil
}

// Participants returns the membership as protocol player infos, in
// insertion order.
func (r *Room) Participants() []protocol.PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerInfosLocked()
}

// Phase returns the current lifecycle phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Snapshot exposes membership count, phase and round for the status surface.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Players:     len(r.participants),
		Phase:       r.phase,
		Round:       r.currentRound,
		TotalRounds: r.totalRounds,
	}
}

// BeginAnswerCollection transitions lobby -> collecting-answers and
// announces the prompt bank.
func (r *Room) BeginAnswerCollection(totalRounds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseLobby {
		return ErrWrongPhase
	}
	r.totalRounds = totalRounds
	r.phase = PhaseCollecting

	questions := make([]protocol.Question, 0, len(r.prompts))
	for _, p := range r.prompts {
		questions = append(questions, protocol.Question{Type: string(p.Kind), Text: p.Text})
	}
	r.broadcast(protocol.NewQuestionsStarted(totalRounds, questions))
	return nil
}

// SubmitAnswer stores the value at promptIndex in the participant's answer
// set, overwriting any previous value. Indices outside the prompt bank are
// accepted and stored as-is.
func (r *Room) SubmitAnswer(id uuid.UUID, promptIndex int, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return
	}
	r.answers[id][promptIndex] = value
	r.participants[idx].Answered = true
}

// MarkReady flags the participant as done answering. Once every participant
// is ready and more than one is present, the room moves to awaiting-ready
// and announces it exactly once; later calls find the phase already
// advanced and do nothing.
func (r *Room) MarkReady(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return
	}
	r.participants[idx].Ready = true

	if r.phase != PhaseCollecting || len(r.participants) < 2 {
		return
	}
	for _, p := range r.participants {
		if !p.Ready {
			return
		}
	}
	r.phase = PhaseAwaitingReady
	r.broadcast(protocol.NewAllPlayersReady())
}

// StartGame begins the first round. Valid only in awaiting-ready; any other
// phase reports ErrNotReady without mutating state.
func (r *Room) StartGame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseAwaitingReady {
		return ErrNotReady
	}
	r.phase = PhasePlaying
	r.startNextRoundLocked()
	return nil
}

// Reset returns the room to the lobby from any phase. Identities and host
// assignment survive; everything per-game is cleared and pending timers are
// invalidated.
func (r *Room) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	r.stopTimersLocked()

	r.phase = PhaseLobby
	r.currentRound = 0
	r.totalRounds = 0
	r.round = nil
	r.resolved = false
	r.votes = make(map[uuid.UUID]uuid.UUID)
	for _, p := range r.participants {
		p.Ready = false
		p.Answered = false
		r.scores[p.ID] = 0
		r.answers[p.ID] = make(map[int]string)
	}
	r.broadcast(protocol.NewGameReset())
}

func (r *Room) indexOf(id uuid.UUID) int {
	for i, p := range r.participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) playerInfosLocked() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, 0, len(r.participants))
	for _, p := range r.participants {
		infos = append(infos, protocol.PlayerInfo{
			ID:       p.ID.String(),
			Name:     p.Name,
			IsHost:   p.Host,
			Ready:    p.Ready,
			Answered: p.Answered,
		})
	}
	return infos
}

func (r *Room) scoresLocked() map[string]int {
	scores := make(map[string]int, len(r.scores))
	for id, s := range r.scores {
		scores[id.String()] = s
	}
	return scores
}

func (r *Room) broadcast(payload any) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(payload)
	}
}

func (r *Room) stopTimersLocked() {
	if r.roundTimer != nil {
		r.roundTimer.Stop()
		r.roundTimer = nil
	}
	if r.advanceTimer != nil {
		r.advanceTimer.Stop()
		r.advanceTimer = nil
	}
}
