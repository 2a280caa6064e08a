package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/event"
	"github.com/sayu/sayu-backend/internal/matching"
	"github.com/sayu/sayu-backend/internal/metrics"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/personality"
)

// Matching limits.
const (
	DefaultCandidateLimit = 20
	MaxCandidateLimit     = 100
	// candidateScanLimit caps how many available users one search scores.
	candidateScanLimit = 1000
	sweepBatchSize     = 200
)

// MatchStore persists match requests and their rejections.
type MatchStore interface {
	Create(ctx context.Context, m *model.MatchRequest) error
	Get(ctx context.Context, id uuid.UUID) (*model.MatchRequest, error)
	HasOpen(ctx context.Context, hostUserID, exhibitionID string) (bool, error)
	Transition(ctx context.Context, id uuid.UUID, from, to model.MatchStatus, matchedUserID *string, now time.Time) (*model.MatchRequest, error)
	ListSweepable(ctx context.Context, now time.Time, limit int) ([]model.MatchRequest, error)
	RecordRejection(ctx context.Context, requestID uuid.UUID, candidateUserID string) error
	RejectedUserIDs(ctx context.Context, requestID uuid.UUID) ([]string, error)
}

// SignalSource reads users' matching signals.
type SignalSource interface {
	Get(ctx context.Context, userID string) (*model.CandidateSignal, error)
	ListAvailable(ctx context.Context, exclude []string, limit int) ([]model.CandidateSignal, error)
}

// PreferenceRecorder learns from a host's accept and reject decisions.
type PreferenceRecorder interface {
	Record(ctx context.Context, pair matching.PairID, accepted bool) error
}

// MatchService runs the match request lifecycle and candidate search.
type MatchService struct {
	engine      *matching.Engine
	requests    MatchStore
	signals     SignalSource
	preferences PreferenceRecorder
	events      event.Publisher
	requestTTL  time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// NewMatchService creates a new MatchService.
func NewMatchService(
	engine *matching.Engine,
	requests MatchStore,
	signals SignalSource,
	preferences PreferenceRecorder,
	events event.Publisher,
	requestTTL time.Duration,
	log zerolog.Logger,
) *MatchService {
	return &MatchService{
		engine:      engine,
		requests:    requests,
		signals:     signals,
		preferences: preferences,
		events:      events,
		requestTTL:  requestTTL,
		log:         log.With().Str("component", "match_service").Logger(),
		now:         time.Now,
	}
}

// CreateMatchRequest opens a request for the host. A host with no profile cannot
// create one, and only one request per exhibition may be open at a time.
func (s *MatchService) CreateMatchRequest(ctx context.Context, hostUserID string, in model.CreateMatchRequest) (*model.MatchRequest, error) {
	if _, err := s.signals.Get(ctx, hostUserID); err != nil {
		return nil, err
	}

	open, err := s.requests.HasOpen(ctx, hostUserID, in.ExhibitionID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, apperr.ErrDuplicate
	}

	now := s.now().UTC()
	filters, expiresAt := matching.ApplyDefaults(in, now, s.requestTTL)
	req := &model.MatchRequest{
		HostUserID:    hostUserID,
		ExhibitionID:  in.ExhibitionID,
		PreferredDate: in.PreferredDate,
		TimeSlot:      in.TimeSlot,
		Filters:       filters,
		Status:        model.MatchStatusOpen,
		ExpiresAt:     expiresAt,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	metrics.MatchTransitions.WithLabelValues(string(model.MatchStatusOpen)).Inc()
	s.publish(ctx, event.MatchCreated, hostUserID, req, nil)
	s.log.Info().
		Str("request_id", req.ID.String()).
		Str("host_user_id", hostUserID).
		Str("exhibition_id", in.ExhibitionID).
		Msg("Match request created")
	return req, nil
}

// FindCandidates ranks available users for an open request. Candidates the host
// already rejected for this request are left out.
func (s *MatchService) FindCandidates(ctx context.Context, hostUserID string, requestID uuid.UUID, limit int) ([]model.CandidateMatch, error) {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	if limit > MaxCandidateLimit {
		limit = MaxCandidateLimit
	}

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := matching.CheckHostTransition(req, hostUserID, model.MatchStatusMatched, s.now()); err != nil {
		return nil, err
	}

	host, err := s.signals.Get(ctx, hostUserID)
	if err != nil {
		return nil, err
	}
	hostType, err := personality.ParseTypeCode(host.TypeCode)
	if err != nil {
		return nil, err
	}

	rejected, err := s.requests.RejectedUserIDs(ctx, requestID)
	if err != nil {
		return nil, err
	}
	exclude := append([]string{hostUserID}, rejected...)

	pool, err := s.signals.ListAvailable(ctx, exclude, candidateScanLimit)
	if err != nil {
		return nil, err
	}

	ranked, err := s.engine.Rank(ctx, req, matching.Host{
		UserID:   hostUserID,
		TypeCode: hostType,
		Location: host.Location,
	}, pool)
	if err != nil {
		return nil, err
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	metrics.MatchCandidatesReturned.Observe(float64(len(ranked)))
	return ranked, nil
}

// AcceptMatch pairs the request with a candidate. Only the host may accept, and
// only while the request is open; the conditional update makes a concurrent
// second accept fail with a conflict.
func (s *MatchService) AcceptMatch(ctx context.Context, hostUserID string, requestID uuid.UUID, candidateUserID string) (*model.MatchRequest, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := matching.CheckHostTransition(req, hostUserID, model.MatchStatusMatched, now); err != nil {
		return nil, err
	}
	if candidateUserID == hostUserID {
		return nil, apperr.Invalid("host cannot match with themselves")
	}

	candidate, err := s.signals.Get(ctx, candidateUserID)
	if err != nil {
		return nil, err
	}

	updated, err := s.requests.Transition(ctx, requestID, model.MatchStatusOpen, model.MatchStatusMatched, &candidateUserID, now.UTC())
	if err != nil {
		return nil, err
	}

	s.learn(ctx, hostUserID, candidate, true)
	metrics.MatchTransitions.WithLabelValues(string(model.MatchStatusMatched)).Inc()
	s.publish(ctx, event.MatchAccepted, hostUserID, updated, map[string]any{"candidate_user_id": candidateUserID})
	s.publish(ctx, event.MatchAccepted, candidateUserID, updated, map[string]any{"host_user_id": hostUserID})
	s.log.Info().
		Str("request_id", requestID.String()).
		Str("host_user_id", hostUserID).
		Str("candidate_user_id", candidateUserID).
		Msg("Match accepted")
	return updated, nil
}

// RejectMatch records that the host passed on a candidate. The request stays open.
func (s *MatchService) RejectMatch(ctx context.Context, hostUserID string, requestID uuid.UUID, candidateUserID string) error {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if err := matching.CheckReject(req, hostUserID, s.now()); err != nil {
		return err
	}

	if err := s.requests.RecordRejection(ctx, requestID, candidateUserID); err != nil {
		return err
	}

	candidate, err := s.signals.Get(ctx, candidateUserID)
	switch {
	case err == nil:
		s.learn(ctx, hostUserID, candidate, false)
	case !isNotFound(err):
		s.log.Warn().Err(err).Str("candidate_user_id", candidateUserID).Msg("Skipping preference update")
	}

	s.publish(ctx, event.MatchRejected, hostUserID, req, map[string]any{"candidate_user_id": candidateUserID})
	return nil
}

// CancelMatchRequest withdraws an open request.
func (s *MatchService) CancelMatchRequest(ctx context.Context, hostUserID string, requestID uuid.UUID) (*model.MatchRequest, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := matching.CheckHostTransition(req, hostUserID, model.MatchStatusCancelled, now); err != nil {
		return nil, err
	}

	updated, err := s.requests.Transition(ctx, requestID, model.MatchStatusOpen, model.MatchStatusCancelled, nil, now.UTC())
	if err != nil {
		return nil, err
	}

	metrics.MatchTransitions.WithLabelValues(string(model.MatchStatusCancelled)).Inc()
	s.publish(ctx, event.MatchCancelled, hostUserID, updated, nil)
	return updated, nil
}

// Compatibility looks up the matrix score for an ordered pair of type codes.
func (s *MatchService) Compatibility(host, candidate string) (*model.CompatibilityResult, error) {
	h, err := personality.ParseTypeCode(host)
	if err != nil {
		return nil, err
	}
	c, err := personality.ParseTypeCode(candidate)
	if err != nil {
		return nil, err
	}
	score, err := s.engine.Matrix().Score(h, c)
	if err != nil {
		return nil, err
	}
	return &model.CompatibilityResult{Host: string(h), Candidate: string(c), Score: score}, nil
}

// Sweep expires open requests past their expiry and completes matched requests
// whose visit date has passed. It returns how many requests moved.
func (s *MatchService) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.requests.ListSweepable(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	moved := 0
	for i := range due {
		req := &due[i]
		to, ok := matching.SweepTarget(req, now)
		if !ok {
			continue
		}

		updated, err := s.requests.Transition(ctx, req.ID, req.Status, to, nil, now.UTC())
		if err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				// Another writer moved it first.
				continue
			}
			return moved, err
		}
		moved++

		metrics.MatchTransitions.WithLabelValues(string(to)).Inc()
		t := event.MatchExpired
		if to == model.MatchStatusCompleted {
			t = event.MatchCompleted
		}
		s.publish(ctx, t, updated.HostUserID, updated, nil)
		if updated.MatchedUserID != nil {
			s.publish(ctx, t, *updated.MatchedUserID, updated, nil)
		}
	}

	if moved > 0 {
		s.log.Info().Int("count", moved).Msg("Match requests swept")
	}
	return moved, nil
}

func (s *MatchService) learn(ctx context.Context, hostUserID string, candidate *model.CandidateSignal, accepted bool) {
	pair := matching.PairID{
		HostUserID:      hostUserID,
		CandidateUserID: candidate.UserID,
		CandidateType:   personality.TypeCode(strings.ToUpper(candidate.TypeCode)),
	}
	if err := s.preferences.Record(ctx, pair, accepted); err != nil {
		s.log.Warn().Err(err).Str("pair", pair.String()).Msg("Failed to record match preference")
	}
}

func (s *MatchService) publish(ctx context.Context, t event.Type, userID string, req *model.MatchRequest, extra map[string]any) {
	data := map[string]any{
		"request_id":    req.ID.String(),
		"exhibition_id": req.ExhibitionID,
		"status":        string(req.Status),
	}
	for k, v := range extra {
		data[k] = v
	}
	if err := s.events.Publish(ctx, event.New(t, userID, data)); err != nil {
		s.log.Warn().Err(err).Str("event_type", string(t)).Msg("Failed to publish event")
	}
}
