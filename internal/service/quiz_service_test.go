package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/cache"
	"github.com/sayu/sayu-backend/internal/config"
	"github.com/sayu/sayu-backend/internal/event"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/personality"
	"github.com/sayu/sayu-backend/internal/quiz"
	"github.com/sayu/sayu-backend/internal/vector"
)

const testDim = 4

type quizFixture struct {
	svc      *QuizService
	engine   *quiz.Engine
	sessions *fakeSessionStore
	profiles *fakeProfiles
	recCache *cache.MemoryCache
	events   *recordingPublisher
}

// archetypeVector gives every type code a distinct unit vector.
func archetypeVector(code personality.TypeCode) vector.Vector {
	i := float32(code.Index())
	return vector.Normalize(vector.Vector{1, i, 16 - i, 0.5})
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()
	catalog, err := quiz.LoadEmbedded()
	if err != nil {
		t.Fatalf("load banks: %v", err)
	}
	engine := quiz.NewEngine(catalog)

	vectors := vector.NewMemoryStore(testDim)
	for _, code := range personality.AllTypeCodes() {
		if err := vectors.Upsert(context.Background(), vector.ArchetypeKey(code), archetypeVector(code)); err != nil {
			t.Fatalf("seed %s: %v", code, err)
		}
	}

	f := &quizFixture{
		engine:   engine,
		sessions: newFakeSessionStore(),
		profiles: newFakeProfiles(),
		recCache: cache.NewMemoryCache(100, time.Hour),
		events:   &recordingPublisher{},
	}
	f.svc = NewQuizService(engine, "v1", f.sessions, f.profiles, vectors, f.recCache, f.events, zerolog.Nop())
	return f
}

// answer submits choice for every remaining question of the session.
func (f *quizFixture) answer(t *testing.T, userID string, id uuid.UUID, choice int) {
	t.Helper()
	for i := 0; i < 50; i++ {
		state, err := f.svc.GetState(context.Background(), userID, id)
		if err != nil {
			t.Fatalf("state: %v", err)
		}
		if state.Question == nil {
			return
		}
		_, err = f.svc.SubmitAnswer(context.Background(), userID, id, model.SubmitAnswerRequest{
			QuestionID:  state.Question.ID,
			ChoiceID:    state.Question.Choices[choice].ID,
			TimeSpentMs: 900,
		})
		if err != nil {
			t.Fatalf("submit %s: %v", state.Question.ID, err)
		}
	}
	t.Fatal("session never completed")
}

func TestQuizServiceCompleteFlow(t *testing.T) {
	tests := []struct {
		name   string
		choice int
		want   personality.TypeCode
	}{
		{"all first choices", 0, "LAEF"},
		{"all second choices", 1, "SRMC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuizFixture(t)
			ctx := context.Background()

			stale := config.CacheKey.RecommendationKey("u1", "artwork", 20)
			if err := f.recCache.Set(ctx, stale, []string{"old"}, time.Hour); err != nil {
				t.Fatal(err)
			}

			state, err := f.svc.StartQuiz(ctx, "u1", model.SessionKindExhibition)
			if err != nil {
				t.Fatalf("start: %v", err)
			}
			if state.Total != 14 || state.QuestionIndex != 0 || state.Question == nil {
				t.Fatalf("unexpected start state %+v", state)
			}

			f.answer(t, "u1", state.SessionID, tt.choice)

			profile, err := f.svc.CompleteQuiz(ctx, "u1", state.SessionID)
			if err != nil {
				t.Fatalf("complete: %v", err)
			}
			if profile.TypeCode != tt.want {
				t.Errorf("type code = %s, want %s", profile.TypeCode, tt.want)
			}
			if profile.Confidence <= 0 || profile.Confidence > 1 {
				t.Errorf("confidence %v out of range", profile.Confidence)
			}
			if got := vector.CosineSimilarity(profile.Vector, archetypeVector(tt.want)); got < 0.9999 {
				t.Errorf("profile vector is not the archetype vector (cos %v)", got)
			}

			var cached []string
			if found, _ := f.recCache.Get(ctx, stale, &cached); found {
				t.Error("cached recommendations survived completion")
			}
			if len(f.sessions.archived) != 1 || f.sessions.archived[0].TypeCode != tt.want {
				t.Errorf("archive queue = %+v", f.sessions.archived)
			}
			if got := f.events.ofType(event.QuizCompleted); len(got) != 1 || got[0].UserID != "u1" {
				t.Errorf("quiz.completed events = %+v", got)
			}
			if _, err := f.svc.GetState(ctx, "u1", state.SessionID); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("live session not deleted: %v", err)
			}
		})
	}
}

func TestQuizServiceRetakeOverwritesProfile(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	for _, choice := range []int{0, 1} {
		state, err := f.svc.StartQuiz(ctx, "u1", model.SessionKindExhibition)
		if err != nil {
			t.Fatal(err)
		}
		f.answer(t, "u1", state.SessionID, choice)
		if _, err := f.svc.CompleteQuiz(ctx, "u1", state.SessionID); err != nil {
			t.Fatal(err)
		}
	}

	p, err := f.profiles.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.TypeCode != "SRMC" {
		t.Errorf("type code = %s, want the latest result SRMC", p.TypeCode)
	}
	if f.profiles.upserts != 2 {
		t.Errorf("upserts = %d, want 2", f.profiles.upserts)
	}
}

func TestQuizServiceStartResumes(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	first, err := f.svc.StartQuiz(ctx, "u1", model.SessionKindExhibition)
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.SubmitAnswer(ctx, "u1", first.SessionID, model.SubmitAnswerRequest{
		QuestionID: first.Question.ID,
		ChoiceID:   first.Question.Choices[0].ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	again, err := f.svc.StartQuiz(ctx, "u1", model.SessionKindExhibition)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Resumed || again.SessionID != first.SessionID || again.QuestionIndex != 1 {
		t.Errorf("expected resume of %s at 1, got %+v", first.SessionID, again)
	}

	other, err := f.svc.StartQuiz(ctx, "u1", model.SessionKindArtwork)
	if err != nil {
		t.Fatal(err)
	}
	if other.Resumed || other.SessionID == first.SessionID {
		t.Errorf("different kind should start a new session, got %+v", other)
	}
}

func TestQuizServiceStartRejectsUnknownKind(t *testing.T) {
	f := newQuizFixture(t)
	_, err := f.svc.StartQuiz(context.Background(), "u1", "sculpture")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestQuizServiceSubmitErrors(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	state, err := f.svc.StartQuiz(ctx, "u1", model.SessionKindExhibition)
	if err != nil {
		t.Fatal(err)
	}
	firstID := state.Question.ID
	if _, err := f.svc.SubmitAnswer(ctx, "u1", state.SessionID, model.SubmitAnswerRequest{QuestionID: firstID, ChoiceID: "a"}); err != nil {
		t.Fatal(err)
	}

	t.Run("stale question", func(t *testing.T) {
		_, err := f.svc.SubmitAnswer(ctx, "u1", state.SessionID, model.SubmitAnswerRequest{QuestionID: firstID, ChoiceID: "a"})
		seq, ok := asSequenceError(err)
		if !ok {
			t.Fatalf("err = %v, want SequenceError", err)
		}
		if seq.ExpectedIndex != 1 || seq.ExpectedID != "ex02" || seq.ConcurrentWrite {
			t.Errorf("unexpected sequence error %+v", seq)
		}
	})

	t.Run("unknown choice", func(t *testing.T) {
		_, err := f.svc.SubmitAnswer(ctx, "u1", state.SessionID, model.SubmitAnswerRequest{QuestionID: "ex02", ChoiceID: "z"})
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("other user's session", func(t *testing.T) {
		_, err := f.svc.SubmitAnswer(ctx, "intruder", state.SessionID, model.SubmitAnswerRequest{QuestionID: "ex02", ChoiceID: "a"})
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("err = %v, want not found", err)
		}
	})

	t.Run("concurrent writer wins", func(t *testing.T) {
		f.sessions.raceWith = func(s *model.QuizSession) {
			if _, err := f.engine.Submit(s, "ex02", "b", 10); err != nil {
				t.Fatalf("winner submit: %v", err)
			}
		}
		_, err := f.svc.SubmitAnswer(ctx, "u1", state.SessionID, model.SubmitAnswerRequest{QuestionID: "ex02", ChoiceID: "a"})
		seq, ok := asSequenceError(err)
		if !ok || !seq.ConcurrentWrite {
			t.Fatalf("err = %v, want concurrent SequenceError", err)
		}
		if seq.ExpectedIndex != 2 || seq.ExpectedID != "ex03" {
			t.Errorf("expected position = %d/%s, want 2/ex03", seq.ExpectedIndex, seq.ExpectedID)
		}

		got, err := f.svc.GetState(ctx, "u1", state.SessionID)
		if err != nil {
			t.Fatal(err)
		}
		if got.QuestionIndex != 2 {
			t.Errorf("question index = %d, want 2 (only the winner applied)", got.QuestionIndex)
		}
	})
}

func TestQuizServiceCompleteErrors(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	state, err := f.svc.StartQuiz(ctx, "u1", model.SessionKindExhibition)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		userID string
		id     uuid.UUID
		want   error
	}{
		{"incomplete session", "u1", state.SessionID, apperr.ErrIncomplete},
		{"incomplete maps to conflict", "u1", state.SessionID, apperr.ErrConflict},
		{"other user", "u2", state.SessionID, apperr.ErrNotFound},
		{"unknown session", "u1", uuid.New(), apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CompleteQuiz(ctx, tt.userID, tt.id)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if f.profiles.upserts != 0 {
		t.Errorf("profile written for a failed completion")
	}
}

func TestQuizServiceStoreUnavailable(t *testing.T) {
	f := newQuizFixture(t)
	f.sessions.err = apperr.Unavailable("quiz session store", errors.New("connection refused"))

	_, err := f.svc.StartQuiz(context.Background(), "u1", model.SessionKindExhibition)
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("err = %v, want store unavailable", err)
	}
}
