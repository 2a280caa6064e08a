package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/model"
)

// SignalRepository reads the matching signals users expose: age, gender,
// languages, location and their current type code.
type SignalRepository struct {
	pool *pgxpool.Pool
}

// NewSignalRepository creates a new SignalRepository.
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

// Get returns one user's signal. Users without a profile have no signal.
func (r *SignalRepository) Get(ctx context.Context, userID string) (*model.CandidateSignal, error) {
	var s model.CandidateSignal
	err := r.pool.QueryRow(ctx,
		`SELECT us.user_id, pp.type_code, us.age, us.gender, us.languages, us.lat, us.lng
		 FROM user_signals us
		 JOIN personality_profiles pp ON pp.user_id = us.user_id
		 WHERE us.user_id = $1`, userID,
	).Scan(&s.UserID, &s.TypeCode, &s.Age, &s.Gender, &s.Languages, &s.Location.Lat, &s.Location.Lng)
	if err != nil {
		return nil, storeErr("get signal", "signal", userID, err)
	}
	return &s, nil
}

// ListAvailable returns available users with a profile, skipping the excluded ids.
// Hard filters are applied by the matching engine, not here.
func (r *SignalRepository) ListAvailable(ctx context.Context, exclude []string, limit int) ([]model.CandidateSignal, error) {
	if exclude == nil {
		exclude = []string{}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT us.user_id, pp.type_code, us.age, us.gender, us.languages, us.lat, us.lng
		 FROM user_signals us
		 JOIN personality_profiles pp ON pp.user_id = us.user_id
		 WHERE us.available
		   AND NOT (us.user_id = ANY($1))
		 ORDER BY us.updated_at DESC
		 LIMIT $2`, exclude, limitOrAll(limit))
	if err != nil {
		return nil, apperr.Unavailable("list candidate signals", err)
	}
	defer rows.Close()

	var out []model.CandidateSignal
	for rows.Next() {
		var s model.CandidateSignal
		if err := rows.Scan(&s.UserID, &s.TypeCode, &s.Age, &s.Gender, &s.Languages, &s.Location.Lat, &s.Location.Lng); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Upsert writes a user's signal and marks them available. TypeCode is ignored; it
// always comes from the user's profile.
func (r *SignalRepository) Upsert(ctx context.Context, s *model.CandidateSignal) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_signals (user_id, age, gender, languages, lat, lng, available)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		 ON CONFLICT (user_id) DO UPDATE
		 SET age = EXCLUDED.age,
		     gender = EXCLUDED.gender,
		     languages = EXCLUDED.languages,
		     lat = EXCLUDED.lat,
		     lng = EXCLUDED.lng,
		     available = TRUE,
		     updated_at = NOW()`,
		s.UserID, s.Age, s.Gender, s.Languages, s.Location.Lat, s.Location.Lng)
	return apperr.Unavailable("upsert signal", err)
}
