package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/sayu/sayu-backend/internal/personality"
)

// PersonalityProfile is a user's classification result. It is only ever written whole.
type PersonalityProfile struct {
	UserID     string                    `json:"user_id"`
	TypeCode   personality.TypeCode      `json:"type_code"`
	Confidence float64                   `json:"confidence"`
	AxisScores personality.Scores        `json:"axis_scores"`
	Axes       [4]personality.AxisResult `json:"axes"`
	Vector     []float32                 `json:"-"`
	SessionID  uuid.UUID                 `json:"session_id"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}
