package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/cache"
	"github.com/sayu/sayu-backend/internal/config"
	"github.com/sayu/sayu-backend/internal/metrics"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/recommend"
	"github.com/sayu/sayu-backend/internal/vector"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Recommendation defaults.
const (
	DefaultRecommendationLimit = 20
	// candidatePoolFactor widens the similarity query so personalization has room
	// to reorder before the list is cut to the requested limit.
	candidatePoolFactor = 3
)

// ContentSource finds content near a query vector.
type ContentSource interface {
	NearestContent(ctx context.Context, kind model.ContentKind, query vector.Vector, limit int) ([]model.ContentVector, error)
}

// HistorySource loads a user's personalization history.
type HistorySource interface {
	History(ctx context.Context, userID string) (*model.PersonalizationHistory, error)
}

// RecommendationService ranks content for a user's profile vector and caches the
// result per user, kind and limit.
type RecommendationService struct {
	profiles ProfileReader
	content  ContentSource
	history  HistorySource
	breaker  *gobreaker.CircuitBreaker[*model.PersonalizationHistory]
	ranker   *recommend.Ranker
	cache    cache.Cacher
	ttl      time.Duration
	group    singleflight.Group
	log      zerolog.Logger
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(
	profiles ProfileReader,
	content ContentSource,
	history HistorySource,
	ranker *recommend.Ranker,
	c cache.Cacher,
	ttl time.Duration,
	log zerolog.Logger,
) *RecommendationService {
	l := log.With().Str("component", "recommendation_service").Logger()
	return &RecommendationService{
		profiles: profiles,
		content:  content,
		history:  history,
		breaker: gobreaker.NewCircuitBreaker[*model.PersonalizationHistory](gobreaker.Settings{
			Name:        "personalization_history",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// A caller giving up says nothing about the history store.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		}),
		ranker: ranker,
		cache:  c,
		ttl:    ttl,
		log:    l,
	}
}

// GetRecommendations returns the user's ranked content. When history cannot be
// loaded the list is ranked on similarity alone and marked unpersonalized.
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID string, q model.RecommendationQuery) (*model.RecommendationList, error) {
	if q.Kind == "" {
		q.Kind = model.ContentKindArtwork
	}
	if q.Limit <= 0 {
		q.Limit = DefaultRecommendationLimit
	}
	key := config.CacheKey.RecommendationKey(userID, string(q.Kind), q.Limit)

	var cached model.RecommendationList
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Recommendation cache read failed")
	}
	if found {
		metrics.RecommendationCacheHits.Inc()
		return &cached, nil
	}
	metrics.RecommendationCacheMisses.Inc()

	// Waiters share the computation, so it must outlive the caller that started it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (any, error) {
		list, err := s.compute(shared, userID, q)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(shared, key, list, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Recommendation cache write failed")
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.RecommendationList), nil
}

func (s *RecommendationService) compute(ctx context.Context, userID string, q model.RecommendationQuery) (*model.RecommendationList, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		candidates []model.ContentVector
		history    *model.PersonalizationHistory
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.content.NearestContent(gctx, q.Kind, profile.Vector, q.Limit*candidatePoolFactor)
		return err
	})
	g.Go(func() error {
		history = s.loadHistory(ctx, userID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := s.ranker.Rank(profile.Vector, candidates, history)
	if len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}

	items := make([]model.Recommendation, len(ranked))
	for i, r := range ranked {
		items[i] = model.Recommendation{
			ItemID:     r.Item.ItemID,
			Kind:       r.Item.Kind,
			Metadata:   r.Item.Metadata,
			Similarity: r.Similarity,
			MatchScore: r.MatchScore,
			FinalScore: r.Score,
		}
	}

	return &model.RecommendationList{
		UserID:       userID,
		TypeCode:     string(profile.TypeCode),
		Personalized: history != nil,
		Items:        items,
	}, nil
}

// loadHistory returns nil when history is unavailable, including while the
// breaker is open.
func (s *RecommendationService) loadHistory(ctx context.Context, userID string) *model.PersonalizationHistory {
	h, err := s.breaker.Execute(func() (*model.PersonalizationHistory, error) {
		return s.history.History(ctx, userID)
	})
	if err != nil {
		metrics.PersonalizationFallbacks.Inc()
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Personalization unavailable, ranking on similarity only")
		return nil
	}
	return h
}
