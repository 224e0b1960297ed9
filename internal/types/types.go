package types

import "time"

// Statement is a single claim shown to players. Exactly one statement
// in a round carries IsLie=true.
type Statement struct {
	Text        string `json:"text"`
	IsLie       bool   `json:"isLie"`
	Explanation string `json:"explanation,omitempty"`
}

// Round is one generated challenge: three statements, one of them false.
type Round []Statement

// History is a session's generation record, newest round first. Rounds
// holds at most the retention cap; RoundCount keeps counting past it.
type History struct {
	RoundCount int     `json:"round_count"`
	Rounds     []Round `json:"rounds"`
}

// PromptLog captures one prompt sent to the model. It is what lets the
// session endpoint find easter-egg rounds after the fact.
type PromptLog struct {
	RoundNumber    int       `json:"round_number"`
	Prompt         string    `json:"prompt"`
	HistoryContext string    `json:"history_context,omitempty"`
	FullPrompt     string    `json:"full_prompt"`
	IsEasterEggSet bool      `json:"is_easter_egg_set"`
	Timestamp      time.Time `json:"timestamp"`
}

// ResponseLog captures one raw model response before parsing.
type ResponseLog struct {
	RoundNumber int       `json:"round_number"`
	Response    string    `json:"response"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event is the envelope delivered to stream subscribers. Error events
// carry Message; everything else carries Payload.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Message string `json:"message,omitempty"`
}

// RoundPayload is the payload of a new_round event.
type RoundPayload struct {
	Statements []Statement `json:"statements"`
}

// API types

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type TriggerResponse struct {
	Message string `json:"message"`
}

type SessionInfoRequest struct {
	Detail     bool `form:"detail"`
	Prompts    bool `form:"prompts"`
	Responses  bool `form:"responses"`
	EasterEggs bool `form:"easter_eggs"`
}

type SessionInfoResponse struct {
	SessionID             string        `json:"session_id"`
	RoundCount            int           `json:"round_count"`
	RoundsInHistory       int           `json:"rounds_in_history"`
	SessionStartedAt      string        `json:"session_started_at"`
	UsingPersistedBackend bool          `json:"using_persisted_backend"`
	Rounds                []Round       `json:"rounds,omitempty"`
	Prompts               []PromptLog   `json:"prompts,omitempty"`
	Responses             []ResponseLog `json:"responses,omitempty"`
}

type SessionActionRequest struct {
	Action string `json:"action"`
}

type SessionActionResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// InvalidActionResponse is what game clients key on when a session
// action is rejected: an error field, not the code/message envelope.
type InvalidActionResponse struct {
	Error string `json:"error"`
}
