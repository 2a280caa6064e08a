package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/sayu/sayu-backend/internal/personality"
)

// SessionKind selects which question track a quiz session runs.
type SessionKind string

const (
	SessionKindExhibition SessionKind = "exhibition"
	SessionKindArtwork    SessionKind = "artwork"
	SessionKindIntegrated SessionKind = "integrated"
)

// Valid reports whether k is a known session kind.
func (k SessionKind) Valid() bool {
	switch k {
	case SessionKindExhibition, SessionKindArtwork, SessionKindIntegrated:
		return true
	}
	return false
}

// SessionStatus enumerates quiz session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusExpired    SessionStatus = "expired"
)

// QuizResponse is one recorded answer. The log is append-only.
type QuizResponse struct {
	QuestionID  string              `json:"question_id"`
	ChoiceID    string              `json:"choice_id"`
	ChoiceIndex int                 `json:"choice_index"`
	AxisWeights personality.Weights `json:"axis_weights"`
	TimeSpentMs int64               `json:"time_spent_ms"`
	AnsweredAt  time.Time           `json:"answered_at"`
}

// QuizSession is the live state of a user's quiz attempt.
type QuizSession struct {
	ID            uuid.UUID          `json:"id"`
	UserID        string             `json:"user_id"`
	Kind          SessionKind        `json:"kind"`
	BankVersion   string             `json:"bank_version"`
	QuestionIndex int                `json:"question_index"`
	Responses     []QuizResponse     `json:"responses"`
	Branch        *string            `json:"branch,omitempty"`
	AxisScores    personality.Scores `json:"axis_scores"`
	Status        SessionStatus      `json:"status"`
	StartedAt     time.Time          `json:"started_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
}

// StartQuizRequest is the payload for starting a quiz.
type StartQuizRequest struct {
	Kind SessionKind `json:"kind" binding:"required,sessionkind"`
}

// SubmitAnswerRequest is the payload for answering the current question.
type SubmitAnswerRequest struct {
	QuestionID  string `json:"question_id" binding:"required,max=64"`
	ChoiceID    string `json:"choice_id" binding:"required,max=64"`
	TimeSpentMs int64  `json:"time_spent_ms" binding:"gte=0"`
}

// QuizArchive is a completed session queued for permanent storage.
type QuizArchive struct {
	Session    QuizSession          `json:"session"`
	TypeCode   personality.TypeCode `json:"type_code"`
	Confidence float64              `json:"confidence"`
	Attempts   int                  `json:"attempts,omitempty"`
}
