// internal/protocol/messages.go
package protocol

// Outbound message kinds.
const (
	KindPlayerJoined     = "playerJoined"
	KindPlayerLeft       = "playerLeft"
	KindQuestionsStarted = "questionsStarted"
	KindAllPlayersReady  = "allPlayersReady"
	KindGameStarted      = "gameStarted"
	KindRoundResults     = "roundResults"
	KindGameEnded        = "gameEnded"
	KindGameReset        = "gameReset"
	KindError            = "error"
)

// PlayerInfo is the public view of one participant.
type PlayerInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsHost   bool   `json:"isHost"`
	Ready    bool   `json:"ready"`
	Answered bool   `json:"answered"`
}

// Question is one prompt shown during answer collection.
type Question struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// PlayerJoined announces a new participant to the whole room. The joining
// client identifies itself through the Player field of the first broadcast
// it receives after connecting.
type PlayerJoined struct {
	Kind    string       `json:"kind"`
	Player  PlayerInfo   `json:"player"`
	Players []PlayerInfo `json:"players"`
}

// PlayerLeft announces a departure, carrying the (possibly reassigned) host.
type PlayerLeft struct {
	Kind    string       `json:"kind"`
	ID      string       `json:"id"`
	HostID  string       `json:"hostId"`
	Players []PlayerInfo `json:"players"`
}

// QuestionsStarted announces the collection phase with the prompt bank.
type QuestionsStarted struct {
	Kind        string     `json:"kind"`
	TotalRounds int        `json:"totalRounds"`
	Questions   []Question `json:"questions"`
}

// AllPlayersReady fires exactly once when every participant has finished
// answering.
type AllPlayersReady struct {
	Kind string `json:"kind"`
}

// GameStarted carries the round payload. The answer's author is deliberately
// omitted; it stays hidden until RoundResults.
type GameStarted struct {
	Kind        string `json:"kind"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	AnswerType  string `json:"answerType"`
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
}

// RoundResults reveals the author, the full vote map and updated scores.
type RoundResults struct {
	Kind          string            `json:"kind"`
	CorrectPlayer string            `json:"correctPlayer"`
	Votes         map[string]string `json:"votes"`
	Scores        map[string]int    `json:"scores"`
}

// GameEnded carries the final scores.
type GameEnded struct {
	Kind   string         `json:"kind"`
	Scores map[string]int `json:"scores"`
}

// GameReset tells clients to return to the lobby view.
type GameReset struct {
	Kind string `json:"kind"`
}

// ErrorMessage is a unicast rejection or failure notice.
type ErrorMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func NewPlayerJoined(player PlayerInfo, players []PlayerInfo) PlayerJoined {
	return PlayerJoined{Kind: KindPlayerJoined, Player: player, Players: players}
}

func NewPlayerLeft(id, hostID string, players []PlayerInfo) PlayerLeft {
	return PlayerLeft{Kind: KindPlayerLeft, ID: id, HostID: hostID, Players: players}
}

func NewQuestionsStarted(totalRounds int, questions []Question) QuestionsStarted {
	return QuestionsStarted{Kind: KindQuestionsStarted, TotalRounds: totalRounds, Questions: questions}
}

func NewAllPlayersReady() AllPlayersReady {
	return AllPlayersReady{Kind: KindAllPlayersReady}
}

func NewGameStarted(question, answer, answerType string, round, totalRounds int) GameStarted {
	return GameStarted{
		Kind:        KindGameStarted,
		Question:    question,
		Answer:      answer,
		AnswerType:  answerType,
		Round:       round,
		TotalRounds: totalRounds,
	}
}

func NewRoundResults(correctPlayer string, votes map[string]string, scores map[string]int) RoundResults {
	return RoundResults{Kind: KindRoundResults, CorrectPlayer: correctPlayer, Votes: votes, Scores: scores}
}

func NewGameEnded(scores map[string]int) GameEnded {
	return GameEnded{Kind: KindGameEnded, Scores: scores}
}

func NewGameReset() GameReset {
	return GameReset{Kind: KindGameReset}
}

func NewError(message string) ErrorMessage {
	return ErrorMessage{Kind: KindError, Message: message}
}
