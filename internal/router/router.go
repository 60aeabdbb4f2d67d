// internal/router/router.go
package router

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mpetrov/whosaid/internal/protocol"
	"github.com/mpetrov/whosaid/internal/room"
)

// DefaultTotalRounds applies when startQuestions omits a round count.
const DefaultTotalRounds = 10

// Transport is the outbound side of the connection layer. Sends are
// best-effort: payloads for closed connections are silently dropped.
type Transport interface {
	Unicast(id uuid.UUID, payload any)
	// Broadcast sends to every open connection except exclude; pass
	// uuid.Nil to exclude nobody.
	Broadcast(payload any, exclude uuid.UUID)
}

// Router maps decoded client events onto Room operations, enforcing
// host-only gating on privileged ones. It holds no state of its own.
type Router struct {
	room      *room.Room
	transport Transport
	log       *logrus.Logger
}

func New(rm *room.Room, t Transport, log *logrus.Logger) *Router {
	return &Router{room: rm, transport: t, log: log}
}

// Join admits a new connection into the room. On a capacity error the
// rejection is unicast by the caller, which still owns the connection at
// that point. The caller registers the connection under the returned id
// before calling AnnounceJoin so the joiner receives its own announcement.
func (rt *Router) Join(name string) (room.Participant, error) {
	p, err := rt.room.Join(name)
	if err != nil {
		return room.Participant{}, err
	}
	rt.log.WithFields(logrus.Fields{"player": p.ID, "name": p.Name, "host": p.Host}).Info("player joined")
	return p, nil
}

// AnnounceJoin broadcasts the new participant and the updated membership.
func (rt *Router) AnnounceJoin(p room.Participant) {
	info := protocol.PlayerInfo{
		ID:     p.ID.String(),
		Name:   p.Name,
		IsHost: p.Host,
	}
	rt.transport.Broadcast(protocol.NewPlayerJoined(info, rt.room.Participants()), uuid.Nil)
}

// HandleDisconnect removes the participant on transport-level closure and
// broadcasts the updated membership. A nil id means the connection closed
// before joining.
func (rt *Router) HandleDisconnect(id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	rt.room.Leave(id)
	rt.log.WithField("player", id).Info("player left")

	hostID := ""
	if h := rt.room.HostID(); h != uuid.Nil {
		hostID = h.String()
	}
	rt.transport.Broadcast(protocol.NewPlayerLeft(id.String(), hostID, rt.room.Participants()), uuid.Nil)
}

// Dispatch routes one decoded event from a joined participant. Unknown
// kinds are logged and ignored.
func (rt *Router) Dispatch(senderID uuid.UUID, ev protocol.ClientEvent) {
	switch e := ev.(type) {
	case protocol.StartQuestions:
		if !rt.requireHost(senderID, "only the host can start the questions") {
			return
		}
		rounds := DefaultTotalRounds
		if e.TotalRounds != nil && *e.TotalRounds > 0 {
			rounds = *e.TotalRounds
		}
		if err := rt.room.BeginAnswerCollection(rounds); err != nil {
			rt.transport.Unicast(senderID, protocol.NewError(err.Error()))
		}

	case protocol.QuestionAnswered:
		rt.room.SubmitAnswer(senderID, e.QuestionIndex, e.Answer)

	case protocol.QuestionsCompleted:
		rt.room.MarkReady(senderID)

	case protocol.StartGame:
		if !rt.requireHost(senderID, "only the host can start the game") {
			return
		}
		if err := rt.room.StartGame(); err != nil {
			rt.transport.Unicast(senderID, protocol.NewError(err.Error()))
		}

	case protocol.Vote:
		guessed, err := uuid.Parse(e.VotedFor)
		if err != nil {
			rt.log.WithField("votedFor", e.VotedFor).Warn("vote with malformed player id")
			return
		}
		rt.room.SubmitVote(senderID, guessed)

	case protocol.NextRound:
		// Informational only; round advancement is timer-driven.

	case protocol.PlayAgain:
		if !rt.requireHost(senderID, "only the host can restart the game") {
			return
		}
		rt.room.Reset()

	case protocol.Join:
		rt.log.WithField("player", senderID).Warn("duplicate join from connected player")

	default:
		rt.log.WithField("kind", ev.EventKind()).Warn("unhandled event kind")
	}
}

func (rt *Router) requireHost(senderID uuid.UUID, reject string) bool {
	if rt.room.HostID() == senderID {
		return true
	}
	rt.log.WithField("player", senderID).Warn("privileged event from non-host")
	rt.transport.Unicast(senderID, protocol.NewError(reject))
	return false
}
