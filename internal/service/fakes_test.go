package service

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/event"
	"github.com/sayu/sayu-backend/internal/matching"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/vector"
)

// ─── Quiz sessions ────────────────────────────────────────────────────

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID][]byte
	active   map[string]uuid.UUID
	archived []*model.QuizArchive
	// raceWith, when set, is applied by a concurrent writer that wins the next
	// Update.
	raceWith func(*model.QuizSession)
	err      error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[uuid.UUID][]byte),
		active:   make(map[string]uuid.UUID),
	}
}

func (f *fakeSessionStore) put(s *model.QuizSession) {
	raw, _ := json.Marshal(s)
	f.sessions[s.ID] = raw
}

func (f *fakeSessionStore) load(id uuid.UUID) (*model.QuizSession, error) {
	raw, ok := f.sessions[id]
	if !ok {
		return nil, apperr.NotFound("quiz session", id)
	}
	var s model.QuizSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *fakeSessionStore) Create(_ context.Context, s *model.QuizSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.put(s)
	f.active[s.UserID] = s.ID
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, id uuid.UUID) (*model.QuizSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.load(id)
}

func (f *fakeSessionStore) ActiveSessionID(_ context.Context, userID string) (uuid.UUID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.active[userID]
	return id, ok, nil
}

func (f *fakeSessionStore) Update(_ context.Context, id uuid.UUID, fn func(*model.QuizSession) error) (*model.QuizSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load(id)
	if err != nil {
		return nil, err
	}
	expected := s.QuestionIndex
	if err := fn(s); err != nil {
		return nil, err
	}

	if f.raceWith != nil {
		winner, _ := f.load(id)
		f.raceWith(winner)
		f.put(winner)
		f.raceWith = nil
		return nil, &apperr.SequenceError{SessionID: id.String(), ExpectedIndex: expected, ConcurrentWrite: true}
	}

	f.put(s)
	return s, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, s *model.QuizSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, s.ID)
	if f.active[s.UserID] == s.ID {
		delete(f.active, s.UserID)
	}
	return nil
}

func (f *fakeSessionStore) EnqueueArchive(_ context.Context, a *model.QuizArchive) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, a)
	return nil
}

// ─── Profiles ─────────────────────────────────────────────────────────

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*model.PersonalityProfile
	upserts  int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]*model.PersonalityProfile)}
}

func (f *fakeProfiles) Get(_ context.Context, userID string) (*model.PersonalityProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperr.NotFound("profile", userID)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) Upsert(_ context.Context, p *model.PersonalityProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.profiles[p.UserID] = &cp
	f.upserts++
	return nil
}

// ─── Events ───────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(t event.Type) []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []event.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ─── Content and history ──────────────────────────────────────────────

type fakeContent struct {
	mu    sync.Mutex
	items []model.ContentVector
	calls int
}

func (f *fakeContent) NearestContent(_ context.Context, kind model.ContentKind, query vector.Vector, limit int) ([]model.ContentVector, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	var out []model.ContentVector
	for _, it := range f.items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeHistory struct {
	mu    sync.Mutex
	h     *model.PersonalizationHistory
	err   error
	calls int
}

func (f *fakeHistory) History(ctx context.Context, _ string) (*model.PersonalizationHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.h, f.err
}

// ─── Matching ─────────────────────────────────────────────────────────

type fakeMatchStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*model.MatchRequest
	rejected map[uuid.UUID][]string
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{
		requests: make(map[uuid.UUID]*model.MatchRequest),
		rejected: make(map[uuid.UUID][]string),
	}
}

func (f *fakeMatchStore) Create(_ context.Context, m *model.MatchRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.HostUserID == m.HostUserID && r.ExhibitionID == m.ExhibitionID && r.Status == model.MatchStatusOpen {
			return apperr.ErrDuplicate
		}
	}
	m.ID = uuid.New()
	m.Status = model.MatchStatusOpen
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	f.requests[m.ID] = &cp
	return nil
}

func (f *fakeMatchStore) Get(_ context.Context, id uuid.UUID) (*model.MatchRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, apperr.NotFound("match request", id)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeMatchStore) HasOpen(_ context.Context, host, exhibition string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.HostUserID == host && r.ExhibitionID == exhibition && r.Status == model.MatchStatusOpen {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMatchStore) Transition(_ context.Context, id uuid.UUID, from, to model.MatchStatus, matchedUserID *string, now time.Time) (*model.MatchRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.Status != from {
		return nil, apperr.Conflict("match request %s is not %s", id, from)
	}
	r.Status = to
	if matchedUserID != nil {
		u := *matchedUserID
		r.MatchedUserID = &u
	}
	if to == model.MatchStatusMatched {
		t := now
		r.MatchedAt = &t
	}
	r.UpdatedAt = now
	cp := *r
	return &cp, nil
}

func (f *fakeMatchStore) ListSweepable(_ context.Context, now time.Time, limit int) ([]model.MatchRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MatchRequest
	for _, r := range f.requests {
		if _, ok := matching.SweepTarget(r, now); ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeMatchStore) RecordRejection(_ context.Context, id uuid.UUID, candidate string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected[id] = append(f.rejected[id], candidate)
	return nil
}

func (f *fakeMatchStore) RejectedUserIDs(_ context.Context, id uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rejected[id]...), nil
}

type fakeSignals map[string]model.CandidateSignal

func (f fakeSignals) Get(_ context.Context, userID string) (*model.CandidateSignal, error) {
	s, ok := f[userID]
	if !ok {
		return nil, apperr.NotFound("signal", userID)
	}
	return &s, nil
}

func (f fakeSignals) ListAvailable(_ context.Context, exclude []string, _ int) ([]model.CandidateSignal, error) {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []model.CandidateSignal
	for id, s := range f {
		if !skip[id] {
			out = append(out, s)
		}
	}
	return out, nil
}

type decision struct {
	pair     matching.PairID
	accepted bool
}

type fakePreferences struct {
	mu        sync.Mutex
	decisions []decision
}

func (f *fakePreferences) Record(_ context.Context, pair matching.PairID, accepted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions = append(f.decisions, decision{pair, accepted})
	return nil
}
