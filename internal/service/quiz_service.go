package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/cache"
	"github.com/sayu/sayu-backend/internal/config"
	"github.com/sayu/sayu-backend/internal/event"
	"github.com/sayu/sayu-backend/internal/metrics"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/personality"
	"github.com/sayu/sayu-backend/internal/quiz"
	"github.com/sayu/sayu-backend/internal/vector"
)

// QuizSessionStore holds live quiz sessions.
type QuizSessionStore interface {
	Create(ctx context.Context, s *model.QuizSession) error
	Get(ctx context.Context, id uuid.UUID) (*model.QuizSession, error)
	ActiveSessionID(ctx context.Context, userID string) (uuid.UUID, bool, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*model.QuizSession) error) (*model.QuizSession, error)
	Delete(ctx context.Context, s *model.QuizSession) error
	EnqueueArchive(ctx context.Context, a *model.QuizArchive) error
}

// ProfileStore reads and overwrites personality profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*model.PersonalityProfile, error)
	Upsert(ctx context.Context, p *model.PersonalityProfile) error
}

// QuizState is what a client needs to resume a session.
type QuizState struct {
	SessionID     uuid.UUID           `json:"session_id"`
	Kind          model.SessionKind   `json:"kind"`
	BankVersion   string              `json:"bank_version"`
	Status        model.SessionStatus `json:"status"`
	QuestionIndex int                 `json:"question_index"`
	Total         int                 `json:"total_questions"`
	Branch        *string             `json:"branch,omitempty"`
	Question      *quiz.Question      `json:"question,omitempty"`
	Resumed       bool                `json:"resumed,omitempty"`
}

// QuizService runs quiz sessions and turns completed ones into profiles.
type QuizService struct {
	engine      *quiz.Engine
	classifier  *personality.Classifier
	bankVersion string
	sessions    QuizSessionStore
	profiles    ProfileStore
	vectors     vector.Store
	recCache    cache.Cacher
	events      event.Publisher
	log         zerolog.Logger
	now         func() time.Time
}

// NewQuizService creates a new QuizService. New sessions use bankVersion.
func NewQuizService(
	engine *quiz.Engine,
	bankVersion string,
	sessions QuizSessionStore,
	profiles ProfileStore,
	vectors vector.Store,
	recCache cache.Cacher,
	events event.Publisher,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		engine:      engine,
		classifier:  personality.NewClassifier(personality.DefaultSaturationMargin),
		bankVersion: bankVersion,
		sessions:    sessions,
		profiles:    profiles,
		vectors:     vectors,
		recCache:    recCache,
		events:      events,
		log:         log.With().Str("component", "quiz_service").Logger(),
		now:         time.Now,
	}
}

// StartQuiz begins a session of kind for userID. An in-progress session of the
// same kind is resumed instead of replaced.
func (s *QuizService) StartQuiz(ctx context.Context, userID string, kind model.SessionKind) (*QuizState, error) {
	if !kind.Valid() {
		return nil, apperr.Invalid("unknown session kind %q", kind)
	}

	if id, ok, err := s.sessions.ActiveSessionID(ctx, userID); err != nil {
		return nil, err
	} else if ok {
		existing, err := s.sessions.Get(ctx, id)
		switch {
		case err == nil && existing.Kind == kind && existing.Status == model.SessionStatusInProgress:
			state, err := s.state(existing)
			if err != nil {
				return nil, err
			}
			state.Resumed = true
			return state, nil
		case err != nil && !isNotFound(err):
			return nil, err
		}
	}

	session, _, err := s.engine.Start(userID, kind, s.bankVersion)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	metrics.QuizSessionsStarted.WithLabelValues(string(kind)).Inc()
	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("user_id", userID).
		Str("kind", string(kind)).
		Str("bank_version", s.bankVersion).
		Msg("Quiz session started")

	return s.state(session)
}

// SubmitAnswer records the answer to the session's current question. Stale or
// concurrent submissions return a SequenceError carrying the expected position.
func (s *QuizService) SubmitAnswer(ctx context.Context, userID string, sessionID uuid.UUID, req model.SubmitAnswerRequest) (quiz.Step, error) {
	var step quiz.Step
	session, err := s.sessions.Update(ctx, sessionID, func(qs *model.QuizSession) error {
		if qs.UserID != userID {
			return apperr.NotFound("quiz session", sessionID)
		}
		var err error
		step, err = s.engine.Submit(qs, req.QuestionID, req.ChoiceID, req.TimeSpentMs)
		return err
	})
	if err != nil {
		if seq, ok := asSequenceError(err); ok {
			metrics.RecordSequenceRejection(seq.ConcurrentWrite)
			if seq.ConcurrentWrite {
				s.fillExpected(ctx, sessionID, seq)
			}
			s.log.Debug().Err(err).Str("session_id", sessionID.String()).Msg("Answer rejected")
		}
		return quiz.Step{}, err
	}

	metrics.QuizAnswers.WithLabelValues(string(session.Kind)).Inc()
	if step.BranchResolved && step.Branch != nil {
		s.log.Info().
			Str("session_id", sessionID.String()).
			Str("branch", *step.Branch).
			Msg("Quiz branch resolved")
	}
	return step, nil
}

// GetState returns the session's current position for resync.
func (s *QuizService) GetState(ctx context.Context, userID string, sessionID uuid.UUID) (*QuizState, error) {
	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.state(session)
}

// CompleteQuiz classifies a finished session and overwrites the user's profile.
// The profile vector is the archetype vector of the resulting type code. The
// user's cached recommendations are invalidated, the session is queued for
// archival, quiz.completed is published and the live session is deleted.
func (s *QuizService) CompleteQuiz(ctx context.Context, userID string, sessionID uuid.UUID) (*model.PersonalityProfile, error) {
	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusCompleted {
		return nil, fmt.Errorf("session %s at question %d: %w", sessionID, session.QuestionIndex, apperr.ErrIncomplete)
	}

	// Recompute from the response log rather than trusting the running totals.
	scores := quiz.Replay(session).Current()
	result := s.classifier.Classify(scores)

	vec, err := s.vectors.Get(ctx, vector.ArchetypeKey(result.TypeCode))
	if err != nil {
		return nil, fmt.Errorf("archetype vector %s: %w", result.TypeCode, err)
	}

	profile := &model.PersonalityProfile{
		UserID:     userID,
		TypeCode:   result.TypeCode,
		Confidence: result.Confidence,
		AxisScores: scores,
		Axes:       result.Axes,
		Vector:     vec,
		SessionID:  session.ID,
		UpdatedAt:  s.now().UTC(),
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	if err := s.recCache.DeletePrefix(ctx, config.CacheKey.RecommendationPrefix(userID)); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to invalidate cached recommendations")
	}
	if err := s.sessions.EnqueueArchive(ctx, &model.QuizArchive{
		Session:    *session,
		TypeCode:   result.TypeCode,
		Confidence: result.Confidence,
	}); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to queue session archive")
	}
	if err := s.events.Publish(ctx, event.New(event.QuizCompleted, userID, map[string]any{
		"session_id": session.ID.String(),
		"kind":       string(session.Kind),
		"type_code":  string(result.TypeCode),
		"confidence": result.Confidence,
	})); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish quiz.completed")
	}
	if err := s.sessions.Delete(ctx, session); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to delete live session")
	}

	metrics.QuizCompletions.WithLabelValues(string(result.TypeCode)).Inc()
	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("user_id", userID).
		Str("type_code", string(result.TypeCode)).
		Float64("confidence", result.Confidence).
		Msg("Quiz completed")

	return profile, nil
}

func (s *QuizService) owned(ctx context.Context, userID string, sessionID uuid.UUID) (*model.QuizSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperr.NotFound("quiz session", sessionID)
	}
	return session, nil
}

func (s *QuizService) state(session *model.QuizSession) (*QuizState, error) {
	total, err := s.engine.TotalQuestions(session.Kind, session.BankVersion)
	if err != nil {
		return nil, err
	}
	q, err := s.engine.Current(session)
	if err != nil {
		return nil, err
	}
	return &QuizState{
		SessionID:     session.ID,
		Kind:          session.Kind,
		BankVersion:   session.BankVersion,
		Status:        session.Status,
		QuestionIndex: session.QuestionIndex,
		Total:         total,
		Branch:        session.Branch,
		Question:      q,
	}, nil
}

// fillExpected adds the winning writer's position to a concurrent-write error so
// the client can resync without another round trip.
func (s *QuizService) fillExpected(ctx context.Context, sessionID uuid.UUID, seq *apperr.SequenceError) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return
	}
	seq.ExpectedIndex = session.QuestionIndex
	if q, err := s.engine.Current(session); err == nil && q != nil {
		seq.ExpectedID = q.ID
	}
}

func asSequenceError(err error) (*apperr.SequenceError, bool) {
	var seq *apperr.SequenceError
	if errors.As(err, &seq) {
		return seq, true
	}
	return nil, false
}
