// Package event publishes domain events (quiz completion, match lifecycle changes) to
// a broker so notification and analytics consumers can react to them.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Type is the routing name of an event.
type Type string

const (
	QuizCompleted  Type = "quiz.completed"
	MatchCreated   Type = "match.created"
	MatchAccepted  Type = "match.accepted"
	MatchRejected  Type = "match.rejected"
	MatchCancelled Type = "match.cancelled"
	MatchExpired   Type = "match.expired"
	MatchCompleted Type = "match.completed"
)

// Event is one published fact. UserID is the user the event should be delivered to.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       Type           `json:"type"`
	UserID     string         `json:"user_id"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// New stamps an event with an id and the current time.
func New(t Type, userID string, data map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		UserID:     userID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher returns a publisher that writes events to log.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("component", "event_publisher").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.log.Debug().
		Str("event_type", string(e.Type)).
		Str("user_id", e.UserID).
		Msg("Event (no broker)")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
