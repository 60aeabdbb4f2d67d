// internal/room/prompts.go
package room

// AnswerKind tags how a submitted answer should be rendered.
type AnswerKind string

const (
	AnswerText      AnswerKind = "text"
	AnswerMediaLink AnswerKind = "mediaLink"
	AnswerImage     AnswerKind = "image"
)

// Prompt is one question shown to every participant during answer
// collection. The bank is fixed at process start and shared read-only.
type Prompt struct {
	Kind AnswerKind
	Text string
}

// DefaultPrompts is the built-in prompt bank. Order matters: answers are
// keyed by index into this slice.
var DefaultPrompts = []Prompt{
	{Kind: AnswerText, Text: "What is the most embarrassing thing you have done in public?"},
	{Kind: AnswerText, Text: "What would you do with a million dollars and 24 hours to spend it?"},
	{Kind: AnswerText, Text: "What is your most unpopular opinion?"},
	{Kind: AnswerMediaLink, Text: "Link a song you secretly love."},
	{Kind: AnswerText, Text: "What is the worst advice you have ever given?"},
	{Kind: AnswerImage, Text: "Share a picture that describes your week."},
	{Kind: AnswerText, Text: "If animals could talk, which species would be the rudest?"},
	{Kind: AnswerText, Text: "What is a skill you claim to have but absolutely do not?"},
}

// Shown when the randomly chosen participant never answered anything.
const (
	fallbackQuestion = "Who is the quietest player in the room?"
	fallbackAnswer   = "This player didn't answer any questions!"
)
