package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/cache"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/recommend"
)

func testContent() []model.ContentVector {
	return []model.ContentVector{
		{ItemID: "near", Kind: model.ContentKindArtwork, Vector: []float32{1, 0, 0, 0},
			Metadata: model.ContentMetadata{Title: "Near", CreatorID: "c1", StyleTags: []string{"impressionism"}}},
		{ItemID: "close", Kind: model.ContentKindArtwork, Vector: []float32{0.9, 0.1, 0, 0},
			Metadata: model.ContentMetadata{Title: "Close", CreatorID: "c2"}},
		{ItemID: "far", Kind: model.ContentKindArtwork, Vector: []float32{0.2, 1, 0, 0},
			Metadata: model.ContentMetadata{Title: "Far", CreatorID: "c3", StyleTags: []string{"cubism"}}},
		{ItemID: "show", Kind: model.ContentKindExhibition, Vector: []float32{1, 0, 0, 0},
			Metadata: model.ContentMetadata{Title: "Show"}},
	}
}

func newRecommendationFixture(h *fakeHistory) (*RecommendationService, *fakeContent, *fakeProfiles) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &model.PersonalityProfile{UserID: "u1", TypeCode: "LAEF", Vector: []float32{1, 0, 0, 0}}
	content := &fakeContent{items: testContent()}
	svc := NewRecommendationService(
		profiles,
		content,
		h,
		recommend.NewRanker(recommend.DefaultAdjustments),
		cache.NewMemoryCache(100, time.Hour),
		time.Hour,
		zerolog.Nop(),
	)
	return svc, content, profiles
}

func itemIDs(items []model.Recommendation) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ItemID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGetRecommendations(t *testing.T) {
	viewedNear := model.NewPersonalizationHistory()
	viewedNear.ViewedItems["near"] = struct{}{}

	likesCubism := model.NewPersonalizationHistory()
	likesCubism.ViewedItems["near"] = struct{}{}
	likesCubism.LikedStyles["cubism"] = struct{}{}
	likesCubism.LikedCreators["c3"] = struct{}{}

	tests := []struct {
		name             string
		history          *fakeHistory
		query            model.RecommendationQuery
		wantIDs          []string
		wantPersonalized bool
	}{
		{
			name:             "similarity order with empty history",
			history:          &fakeHistory{h: model.NewPersonalizationHistory()},
			wantIDs:          []string{"near", "close", "far"},
			wantPersonalized: true,
		},
		{
			name:             "viewed item drops",
			history:          &fakeHistory{h: viewedNear},
			wantIDs:          []string{"close", "near", "far"},
			wantPersonalized: true,
		},
		{
			name:             "liked creator and style lift",
			history:          &fakeHistory{h: likesCubism},
			wantIDs:          []string{"close", "far", "near"},
			wantPersonalized: true,
		},
		{
			name:             "history failure falls back to similarity",
			history:          &fakeHistory{err: errors.New("db down")},
			wantIDs:          []string{"near", "close", "far"},
			wantPersonalized: false,
		},
		{
			name:             "limit truncates",
			history:          &fakeHistory{h: model.NewPersonalizationHistory()},
			query:            model.RecommendationQuery{Limit: 2},
			wantIDs:          []string{"near", "close"},
			wantPersonalized: true,
		},
		{
			name:             "exhibition kind",
			history:          &fakeHistory{h: model.NewPersonalizationHistory()},
			query:            model.RecommendationQuery{Kind: model.ContentKindExhibition},
			wantIDs:          []string{"show"},
			wantPersonalized: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newRecommendationFixture(tt.history)
			list, err := svc.GetRecommendations(context.Background(), "u1", tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := itemIDs(list.Items); !equalIDs(got, tt.wantIDs) {
				t.Errorf("items = %v, want %v", got, tt.wantIDs)
			}
			if list.Personalized != tt.wantPersonalized {
				t.Errorf("personalized = %v, want %v", list.Personalized, tt.wantPersonalized)
			}
			if list.TypeCode != "LAEF" {
				t.Errorf("type code = %s", list.TypeCode)
			}
			for _, it := range list.Items {
				if it.FinalScore < 0 || it.FinalScore > 100 {
					t.Errorf("%s final score %v out of range", it.ItemID, it.FinalScore)
				}
			}
		})
	}
}

func TestGetRecommendationsCaches(t *testing.T) {
	svc, content, profiles := newRecommendationFixture(&fakeHistory{h: model.NewPersonalizationHistory()})
	ctx := context.Background()

	first, err := svc.GetRecommendations(ctx, "u1", model.RecommendationQuery{})
	if err != nil {
		t.Fatal(err)
	}

	// A changed profile is not visible until the cache entry is invalidated.
	profiles.profiles["u1"].Vector = []float32{0, 1, 0, 0}
	second, err := svc.GetRecommendations(ctx, "u1", model.RecommendationQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if content.calls != 1 {
		t.Errorf("content queried %d times, want 1", content.calls)
	}
	if !equalIDs(itemIDs(first.Items), itemIDs(second.Items)) {
		t.Errorf("cached list differs: %v vs %v", itemIDs(first.Items), itemIDs(second.Items))
	}

	if _, err := svc.GetRecommendations(ctx, "u1", model.RecommendationQuery{Limit: 1}); err != nil {
		t.Fatal(err)
	}
	if content.calls != 2 {
		t.Errorf("different limit should miss the cache, calls = %d", content.calls)
	}
}

func TestGetRecommendationsWithoutProfile(t *testing.T) {
	svc, _, _ := newRecommendationFixture(&fakeHistory{h: model.NewPersonalizationHistory()})
	_, err := svc.GetRecommendations(context.Background(), "nobody", model.RecommendationQuery{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestHistoryBreakerOpens(t *testing.T) {
	h := &fakeHistory{err: errors.New("db down")}
	svc, _, _ := newRecommendationFixture(h)
	ctx := context.Background()

	for i := 1; i <= 8; i++ {
		if _, err := svc.GetRecommendations(ctx, "u1", model.RecommendationQuery{Limit: i}); err != nil {
			t.Fatal(err)
		}
	}
	if h.calls != 5 {
		t.Errorf("history called %d times, want 5 before the breaker opened", h.calls)
	}
}

func TestProfileMissesLeaveBreakerClosed(t *testing.T) {
	h := &fakeHistory{h: model.NewPersonalizationHistory()}
	svc, _, _ := newRecommendationFixture(h)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := svc.GetRecommendations(ctx, fmt.Sprintf("no-profile-%d", i), model.RecommendationQuery{})
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	}
	if h.calls != 0 {
		t.Errorf("history called %d times for users without a profile", h.calls)
	}

	list, err := svc.GetRecommendations(ctx, "u1", model.RecommendationQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if !list.Personalized {
		t.Error("healthy history store should personalize")
	}
}

func TestCancelledHistoryCallsLeaveBreakerClosed(t *testing.T) {
	h := &fakeHistory{err: context.Canceled}
	svc, _, _ := newRecommendationFixture(h)
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		if _, err := svc.GetRecommendations(ctx, "u1", model.RecommendationQuery{Limit: i}); err != nil {
			t.Fatal(err)
		}
	}

	h.mu.Lock()
	h.err, h.h = nil, model.NewPersonalizationHistory()
	h.mu.Unlock()

	list, err := svc.GetRecommendations(ctx, "u1", model.RecommendationQuery{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if !list.Personalized {
		t.Error("cancellations tripped the breaker")
	}
	if h.calls != 7 {
		t.Errorf("history called %d times, want 7", h.calls)
	}
}

func TestSharedComputationSurvivesCallerCancel(t *testing.T) {
	svc, _, _ := newRecommendationFixture(&fakeHistory{h: model.NewPersonalizationHistory()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list, err := svc.GetRecommendations(ctx, "u1", model.RecommendationQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if !list.Personalized {
		t.Error("history load was cut short by the caller's cancellation")
	}
}
