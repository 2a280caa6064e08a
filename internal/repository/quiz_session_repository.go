package repository

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/config"
	"github.com/sayu/sayu-backend/internal/model"
)

// QuizSessionRepository keeps live quiz sessions in Redis as JSON documents with a
// sliding TTL. Completed sessions are archived to PostgreSQL by the archive worker.
type QuizSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuizSessionRepository creates a new QuizSessionRepository.
func NewQuizSessionRepository(rdb *redis.Client, ttl time.Duration) *QuizSessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &QuizSessionRepository{rdb: rdb, ttl: ttl}
}

// Create stores a new session and points the user's active-session key at it.
func (r *QuizSessionRepository) Create(ctx context.Context, s *model.QuizSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.QuizSessionKey(s.ID.String()), raw, r.ttl)
	pipe.Set(ctx, config.CacheKey.UserActiveQuizKey(s.UserID), s.ID.String(), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.Unavailable("create quiz session", err)
	}
	return nil
}

// Get loads a session. A missing or expired session is NotFound.
func (r *QuizSessionRepository) Get(ctx context.Context, id uuid.UUID) (*model.QuizSession, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.QuizSessionKey(id.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("quiz session", id)
		}
		return nil, apperr.Unavailable("get quiz session", err)
	}

	var s model.QuizSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ActiveSessionID returns the user's in-progress session id, if any.
func (r *QuizSessionRepository) ActiveSessionID(ctx context.Context, userID string) (uuid.UUID, bool, error) {
	val, err := r.rdb.Get(ctx, config.CacheKey.UserActiveQuizKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, apperr.Unavailable("get active quiz", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

// Update applies fn to the stored session inside a WATCH/MULTI transaction. If
// another writer changes the session between the read and the write, the
// transaction aborts and Update returns a SequenceError flagged as a concurrent
// write. Errors returned by fn abort the update unchanged.
func (r *QuizSessionRepository) Update(ctx context.Context, id uuid.UUID, fn func(*model.QuizSession) error) (*model.QuizSession, error) {
	key := config.CacheKey.QuizSessionKey(id.String())
	var updated *model.QuizSession

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return apperr.NotFound("quiz session", id)
			}
			return apperr.Unavailable("get quiz session", err)
		}

		var s model.QuizSession
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		expectedIndex := s.QuestionIndex

		if err := fn(&s); err != nil {
			return err
		}

		next, err := json.Marshal(&s)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, r.ttl)
			pipe.Expire(ctx, config.CacheKey.UserActiveQuizKey(s.UserID), r.ttl)
			return nil
		})
		if errors.Is(err, redis.TxFailedErr) {
			return &apperr.SequenceError{
				SessionID:       id.String(),
				ExpectedIndex:   expectedIndex,
				ConcurrentWrite: true,
			}
		}
		if err != nil {
			return apperr.Unavailable("update quiz session", err)
		}
		updated = &s
		return nil
	}

	if err := r.rdb.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, &apperr.SequenceError{SessionID: id.String(), ConcurrentWrite: true}
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes the live session and clears the user's active pointer when it
// still references this session.
func (r *QuizSessionRepository) Delete(ctx context.Context, s *model.QuizSession) error {
	activeKey := config.CacheKey.UserActiveQuizKey(s.UserID)

	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, activeKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, config.CacheKey.QuizSessionKey(s.ID.String()))
			if current == s.ID.String() {
				pipe.Del(ctx, activeKey)
			}
			return nil
		})
		return err
	}, activeKey)
	if err != nil {
		return apperr.Unavailable("delete quiz session", err)
	}
	return nil
}

// EnqueueArchive pushes a completed session onto the archive worker's queue.
func (r *QuizSessionRepository) EnqueueArchive(ctx context.Context, a *model.QuizArchive) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := r.rdb.RPush(ctx, config.WorkerKey.PersistQuizSessionsQueue, raw).Err(); err != nil {
		return apperr.Unavailable("enqueue quiz archive", err)
	}
	return nil
}
