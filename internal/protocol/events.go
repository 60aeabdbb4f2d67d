// internal/protocol/events.go
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind signals an event kind the server does not understand.
// Callers log and drop the event; it is never fatal to the connection.
var ErrUnknownKind = errors.New("unknown event kind")

// Inbound event kinds.
const (
	KindJoin               = "join"
	KindStartQuestions     = "startQuestions"
	KindQuestionAnswered   = "questionAnswered"
	KindQuestionsCompleted = "questionsCompleted"
	KindStartGame          = "startGame"
	KindVote               = "vote"
	KindNextRound          = "nextRound"
	KindPlayAgain          = "playAgain"
)

// ClientEvent is the decoded form of one inbound message. Exactly one
// concrete type exists per kind; dispatch is a type switch on this interface.
type ClientEvent interface {
	EventKind() string
}

// Join is sent once per connection to enter the room.
type Join struct {
	Name string `json:"name"`
}

// StartQuestions moves the room into answer collection. Host only.
// TotalRounds is optional; the router applies the default when absent.
type StartQuestions struct {
	TotalRounds *int `json:"totalRounds"`
}

// QuestionAnswered carries one submitted answer.
type QuestionAnswered struct {
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
}

// QuestionsCompleted marks the sender as done answering.
type QuestionsCompleted struct{}

// StartGame begins the first round. Host only, valid only once all
// participants are ready.
type StartGame struct{}

// Vote records the sender's guess for the current round's author.
type Vote struct {
	VotedFor string `json:"votedFor"`
}

// NextRound is informational; round advancement is server-driven.
type NextRound struct{}

// PlayAgain resets the room back to the lobby. Host only.
type PlayAgain struct{}

func (Join) EventKind() string               { return KindJoin }
func (StartQuestions) EventKind() string     { return KindStartQuestions }
func (QuestionAnswered) EventKind() string   { return KindQuestionAnswered }
func (QuestionsCompleted) EventKind() string { return KindQuestionsCompleted }
func (StartGame) EventKind() string          { return KindStartGame }
func (Vote) EventKind() string               { return KindVote }
func (NextRound) EventKind() string          { return KindNextRound }
func (PlayAgain) EventKind() string          { return KindPlayAgain }

type envelope struct {
	Kind string `json:"kind"`
}

// DecodeClientEvent parses a raw inbound frame into its typed event.
// Malformed JSON and unknown kinds both return an error; the payload is
// otherwise taken as-is with missing fields left at their zero values.
func DecodeClientEvent(data []byte) (ClientEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch env.Kind {
	case KindJoin:
		var ev Join
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		return ev, nil
	case KindStartQuestions:
		var ev StartQuestions
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		return ev, nil
	case KindQuestionAnswered:
		var ev QuestionAnswered
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		return ev, nil
	case KindQuestionsCompleted:
		return QuestionsCompleted{}, nil
	case KindStartGame:
		return StartGame{}, nil
	case KindVote:
		var ev Vote
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		return ev, nil
	case KindNextRound:
		return NextRound{}, nil
	case KindPlayAgain:
		return PlayAgain{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
}
