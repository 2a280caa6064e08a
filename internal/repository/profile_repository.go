package repository

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/model"
)

// ProfileRepository handles personality profile data access.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Get retrieves a user's current profile.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*model.PersonalityProfile, error) {
	var (
		p         model.PersonalityProfile
		scoresRaw []byte
		axesRaw   []byte
		embedding pgvector.Vector
	)
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, type_code, confidence, axis_scores, axes, embedding, session_id, updated_at
		 FROM personality_profiles
		 WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.TypeCode, &p.Confidence, &scoresRaw, &axesRaw, &embedding, &p.SessionID, &p.UpdatedAt)
	if err != nil {
		return nil, storeErr("get profile", "profile", userID, err)
	}

	if err := json.Unmarshal(scoresRaw, &p.AxisScores); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(axesRaw, &p.Axes); err != nil {
		return nil, err
	}
	p.Vector = embedding.Slice()
	return &p, nil
}

// Upsert writes the whole profile, replacing any previous one.
func (r *ProfileRepository) Upsert(ctx context.Context, p *model.PersonalityProfile) error {
	scoresRaw, err := json.Marshal(p.AxisScores)
	if err != nil {
		return err
	}
	axesRaw, err := json.Marshal(p.Axes)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO personality_profiles
		     (user_id, type_code, confidence, axis_scores, axes, embedding, session_id, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE
		 SET type_code = EXCLUDED.type_code,
		     confidence = EXCLUDED.confidence,
		     axis_scores = EXCLUDED.axis_scores,
		     axes = EXCLUDED.axes,
		     embedding = EXCLUDED.embedding,
		     session_id = EXCLUDED.session_id,
		     updated_at = EXCLUDED.updated_at`,
		p.UserID, string(p.TypeCode), p.Confidence, scoresRaw, axesRaw,
		pgvector.NewVector(p.Vector), p.SessionID, p.UpdatedAt,
	)
	return apperr.Unavailable("upsert profile", err)
}
