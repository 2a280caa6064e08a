package websocket

import (
	"github.com/sayu/sayu-backend/internal/response"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionState    Action = "state"
	ActionComplete Action = "complete"
	ActionPing     Action = "ping"
)

// Request is one client message. Only answer uses the question fields.
type Request struct {
	Action      Action `json:"action"`
	QuestionID  string `json:"question_id,omitempty"`
	ChoiceID    string `json:"choice_id,omitempty"`
	TimeSpentMs int64  `json:"time_spent_ms,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventStep      Event = "step"
	EventState     Event = "state"
	EventCompleted Event = "completed"
	EventPong      Event = "pong"
)

// Message is one server message. Data holds the event payload.
type Message struct {
	Event Event `json:"event"`
	Data  any   `json:"data,omitempty"`
}

// ErrorResponse reports a failed action. Hint is set for out-of-sequence answers.
type ErrorResponse struct {
	Event Event                  `json:"event"`
	Code  response.ErrCode       `json:"code"`
	Error string                 `json:"error"`
	Hint  *response.SequenceHint `json:"hint,omitempty"`
}
