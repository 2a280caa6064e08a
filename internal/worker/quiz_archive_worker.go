package worker

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/config"
	"github.com/sayu/sayu-backend/internal/model"
)

const (
	ArchiveBatchSize    = 50
	ArchiveBatchTimeout = 2 * time.Second
	ArchivePollTimeout  = 1 * time.Second
	// ArchiveMaxAttempts bounds requeues of a session that keeps failing to insert.
	ArchiveMaxAttempts = 5
)

// QuizArchiveWorker drains completed quiz sessions from Redis into the quiz_sessions
// table in batches.
type QuizArchiveWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewQuizArchiveWorker creates a new QuizArchiveWorker.
func NewQuizArchiveWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *QuizArchiveWorker {
	return &QuizArchiveWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "quiz_archive_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes what it holds. Call in a goroutine.
func (w *QuizArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("QuizArchiveWorker started")

	batch := make([]*model.QuizArchive, 0, ArchiveBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ArchiveBatchSize || time.Since(lastFlush) >= ArchiveBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ArchivePollTimeout, config.WorkerKey.PersistQuizSessionsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(ArchivePollTimeout)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var a model.QuizArchive
			if err := json.Unmarshal([]byte(item[1]), &a); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &a)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert wrapper
// ----------------------------------------------------------------

func (w *QuizArchiveWorker) flushSafe(ctx context.Context, batch []*model.QuizArchive) {
	if len(batch) == 0 {
		return
	}

	rows, err := buildArchiveRows(batch)
	if err == nil {
		err = w.bulkInsert(ctx, rows)
	}
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Quiz sessions archived")
		return
	}

	w.log.Warn().Err(err).Msg("bulk archive insert failed, using fallback")
	for _, a := range batch {
		if err := w.persistSingle(ctx, a); err != nil {
			w.requeue(ctx, a, err)
		}
	}
}

func (w *QuizArchiveWorker) requeue(ctx context.Context, a *model.QuizArchive, cause error) {
	a.Attempts++
	l := w.log.With().Str("session_id", a.Session.ID.String()).Int("attempts", a.Attempts).Logger()
	if a.Attempts >= ArchiveMaxAttempts {
		l.Error().Err(cause).Msg("Dropping quiz session archive after repeated failures")
		return
	}

	l.Error().Err(cause).Msg("persistSingle failed, requeueing")
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	w.rdb.RPush(ctx, config.WorkerKey.PersistQuizSessionsQueue, raw)
}

// ----------------------------------------------------------------
// BULK PostgreSQL INSERT using UNNEST
// ----------------------------------------------------------------

// archiveRows holds one column slice per quiz_sessions column.
type archiveRows struct {
	ids         []uuid.UUID
	userIDs     []string
	kinds       []string
	versions    []string
	branches    []*string
	responses   []string
	axisScores  []string
	typeCodes   []string
	confidences []float64
	startedAts  []time.Time
	completedAt []time.Time
}

func buildArchiveRows(batch []*model.QuizArchive) (*archiveRows, error) {
	n := len(batch)
	r := &archiveRows{
		ids:         make([]uuid.UUID, 0, n),
		userIDs:     make([]string, 0, n),
		kinds:       make([]string, 0, n),
		versions:    make([]string, 0, n),
		branches:    make([]*string, 0, n),
		responses:   make([]string, 0, n),
		axisScores:  make([]string, 0, n),
		typeCodes:   make([]string, 0, n),
		confidences: make([]float64, 0, n),
		startedAts:  make([]time.Time, 0, n),
		completedAt: make([]time.Time, 0, n),
	}

	for _, a := range batch {
		s := a.Session
		responses, err := json.Marshal(s.Responses)
		if err != nil {
			return nil, err
		}
		scores, err := json.Marshal(s.AxisScores)
		if err != nil {
			return nil, err
		}
		completed := s.UpdatedAt
		if s.CompletedAt != nil {
			completed = *s.CompletedAt
		}

		r.ids = append(r.ids, s.ID)
		r.userIDs = append(r.userIDs, s.UserID)
		r.kinds = append(r.kinds, string(s.Kind))
		r.versions = append(r.versions, s.BankVersion)
		r.branches = append(r.branches, s.Branch)
		r.responses = append(r.responses, string(responses))
		r.axisScores = append(r.axisScores, string(scores))
		r.typeCodes = append(r.typeCodes, string(a.TypeCode))
		r.confidences = append(r.confidences, a.Confidence)
		r.startedAts = append(r.startedAts, s.StartedAt)
		r.completedAt = append(r.completedAt, completed)
	}
	return r, nil
}

func (w *QuizArchiveWorker) bulkInsert(ctx context.Context, r *archiveRows) error {
	query := `
		INSERT INTO quiz_sessions
			(id, user_id, kind, bank_version, branch, responses, axis_scores,
			 type_code, confidence, started_at, completed_at)
		SELECT * FROM UNNEST(
			$1::uuid[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::text[],
			$6::jsonb[],
			$7::jsonb[],
			$8::text[],
			$9::float8[],
			$10::timestamptz[],
			$11::timestamptz[]
		)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := w.pool.Exec(ctx, query,
		r.ids, r.userIDs, r.kinds, r.versions, r.branches, r.responses, r.axisScores,
		r.typeCodes, r.confidences, r.startedAts, r.completedAt,
	)
	return err
}

// ----------------------------------------------------------------
// FALLBACK single insert
// ----------------------------------------------------------------

func (w *QuizArchiveWorker) persistSingle(ctx context.Context, a *model.QuizArchive) error {
	r, err := buildArchiveRows([]*model.QuizArchive{a})
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO quiz_sessions
			(id, user_id, kind, bank_version, branch, responses, axis_scores,
			 type_code, confidence, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		r.ids[0], r.userIDs[0], r.kinds[0], r.versions[0], r.branches[0], r.responses[0],
		r.axisScores[0], r.typeCodes[0], r.confidences[0], r.startedAts[0], r.completedAt[0],
	)
	return err
}
