package model

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus enumerates match request states.
type MatchStatus string

const (
	MatchStatusOpen      MatchStatus = "open"
	MatchStatusMatched   MatchStatus = "matched"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCancelled MatchStatus = "cancelled"
	MatchStatusExpired   MatchStatus = "expired"
)

// TimeSlot is the part of day a host wants to visit.
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
	TimeSlotEvening   TimeSlot = "evening"
)

// Valid reports whether t is a known time slot.
func (t TimeSlot) Valid() bool {
	switch t {
	case TimeSlotMorning, TimeSlotAfternoon, TimeSlotEvening:
		return true
	}
	return false
}

// GenderAny disables gender filtering.
const GenderAny = "any"

// MatchFilters are the hard constraints a candidate must satisfy.
type MatchFilters struct {
	AgeMin          int      `json:"age_min"`
	AgeMax          int      `json:"age_max"`
	Gender          string   `json:"gender"`
	MaxDistanceKm   float64  `json:"max_distance_km"`
	Languages       []string `json:"languages"`
	Interests       []string `json:"interests,omitempty"`
	ExperienceLevel string   `json:"experience_level"`
}

// MatchRequest is a host's request for a viewing companion.
type MatchRequest struct {
	ID            uuid.UUID    `json:"id"`
	HostUserID    string       `json:"host_user_id"`
	ExhibitionID  string       `json:"exhibition_id"`
	PreferredDate time.Time    `json:"preferred_date"`
	TimeSlot      TimeSlot     `json:"time_slot"`
	Filters       MatchFilters `json:"filters"`
	Status        MatchStatus  `json:"status"`
	MatchedUserID *string      `json:"matched_user_id,omitempty"`
	MatchedAt     *time.Time   `json:"matched_at,omitempty"`
	ExpiresAt     time.Time    `json:"expires_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CandidateSignal is another user's current matching state.
type CandidateSignal struct {
	UserID    string      `json:"user_id"`
	TypeCode  string      `json:"type_code"`
	Age       int         `json:"age"`
	Gender    string      `json:"gender"`
	Languages []string    `json:"languages"`
	Location  Coordinates `json:"location"`
}

// CandidateMatch is one ranked candidate for a match request.
type CandidateMatch struct {
	UserID             string  `json:"user_id"`
	TypeCode           string  `json:"type_code"`
	BaseScore          int     `json:"base_score"`
	LearningAdjustment float64 `json:"learning_adjustment"`
	Score              float64 `json:"score"`
	DistanceKm         float64 `json:"distance_km"`
}

// CreateMatchRequest is the payload for creating a match request. Zero filter values
// take the server defaults.
type CreateMatchRequest struct {
	ExhibitionID    string    `json:"exhibition_id" binding:"required,max=64"`
	PreferredDate   time.Time `json:"preferred_date" binding:"required"`
	TimeSlot        TimeSlot  `json:"time_slot" binding:"required,timeslot"`
	AgeMin          int       `json:"age_min" binding:"omitempty,min=14,max=120"`
	AgeMax          int       `json:"age_max" binding:"omitempty,min=14,max=120,gtefield=AgeMin"`
	Gender          string    `json:"gender" binding:"omitempty,max=16"`
	MaxDistanceKm   float64   `json:"max_distance_km" binding:"omitempty,gt=0,lte=500"`
	Languages       []string  `json:"languages" binding:"omitempty,max=8,dive,min=2,max=16"`
	Interests       []string  `json:"interests" binding:"omitempty,max=16,dive,max=32"`
	ExperienceLevel string    `json:"experience_level" binding:"omitempty,oneof=any beginner intermediate expert"`
}

// CandidateDecisionRequest names the candidate the host accepts or rejects.
type CandidateDecisionRequest struct {
	CandidateUserID string `json:"candidate_user_id" binding:"required,max=64"`
}

// CompatibilityResult is the response for a type-pair compatibility lookup.
type CompatibilityResult struct {
	Host      string `json:"host"`
	Candidate string `json:"candidate"`
	Score     int    `json:"score"`
}

// CompatibilityQuery binds the two type codes of a compatibility lookup.
type CompatibilityQuery struct {
	Host      string `uri:"host" binding:"required,typecode"`
	Candidate string `uri:"candidate" binding:"required,typecode"`
}

// CandidateQuery is the query string for listing candidates.
type CandidateQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
