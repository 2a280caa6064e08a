package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/config"
	"github.com/sayu/sayu-backend/internal/matching"
	"github.com/sayu/sayu-backend/internal/personality"
)

// Learned preference weights.
const (
	PreferenceAcceptDelta = 1.0
	PreferenceRejectDelta = -0.5
	PreferenceUserWeight  = 5.0
	PreferenceTypeWeight  = 3.0
	PreferenceTTL         = 7 * 24 * time.Hour
)

// PreferenceRepository learns which users and types a host tends to accept. Each
// host has one Redis hash with "user:<id>" and "type:<code>" counters that expire
// a week after the last decision. It is the matching engine's Adjuster.
type PreferenceRepository struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewPreferenceRepository creates a new PreferenceRepository.
func NewPreferenceRepository(rdb *redis.Client, log zerolog.Logger) *PreferenceRepository {
	return &PreferenceRepository{
		rdb: rdb,
		log: log.With().Str("component", "preference_store").Logger(),
	}
}

var _ matching.Adjuster = (*PreferenceRepository)(nil)

func userField(id string) string { return "user:" + id }
func typeField(code personality.TypeCode) string { return "type:" + string(code) }

// Record folds one accept or reject decision into the host's preferences.
func (r *PreferenceRepository) Record(ctx context.Context, pair matching.PairID, accepted bool) error {
	delta := PreferenceRejectDelta
	if accepted {
		delta = PreferenceAcceptDelta
	}
	key := config.CacheKey.UserPreferencesKey(pair.HostUserID)

	pipe := r.rdb.TxPipeline()
	pipe.HIncrByFloat(ctx, key, userField(pair.CandidateUserID), delta)
	if pair.CandidateType != "" {
		pipe.HIncrByFloat(ctx, key, typeField(pair.CandidateType), delta)
	}
	pipe.Expire(ctx, key, PreferenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.Unavailable("record preference", err)
	}
	return nil
}

// Adjust returns user×5 + type×3 for the pair. Lookup failures are logged and
// treated as no adjustment so ranking never fails on the learning hook.
func (r *PreferenceRepository) Adjust(ctx context.Context, pair matching.PairID) float64 {
	key := config.CacheKey.UserPreferencesKey(pair.HostUserID)

	vals, err := r.rdb.HMGet(ctx, key, userField(pair.CandidateUserID), typeField(pair.CandidateType)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("pair", pair.String()).Msg("Preference lookup failed")
		}
		return 0
	}

	return PreferenceUserWeight*hashFloat(vals, 0) + PreferenceTypeWeight*hashFloat(vals, 1)
}

func hashFloat(vals []any, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	s, ok := vals[i].(string)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
