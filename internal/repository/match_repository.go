package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/model"
)

// MatchRepository handles match request data access. Status changes go through
// Transition, a conditional update that only succeeds from the expected status.
type MatchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository creates a new MatchRepository.
func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

const matchColumns = `id, host_user_id, exhibition_id, preferred_date, time_slot, filters,
	status, matched_user_id, matched_at, expires_at, created_at, updated_at`

func scanMatch(row pgx.Row) (*model.MatchRequest, error) {
	var (
		m          model.MatchRequest
		filtersRaw []byte
	)
	err := row.Scan(&m.ID, &m.HostUserID, &m.ExhibitionID, &m.PreferredDate, &m.TimeSlot, &filtersRaw,
		&m.Status, &m.MatchedUserID, &m.MatchedAt, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(filtersRaw, &m.Filters); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts an open request. A second open request for the same host and
// exhibition violates the partial unique index and returns ErrDuplicate.
func (r *MatchRepository) Create(ctx context.Context, m *model.MatchRequest) error {
	filtersRaw, err := json.Marshal(m.Filters)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO match_requests
		     (host_user_id, exhibition_id, preferred_date, time_slot, filters, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		m.HostUserID, m.ExhibitionID, m.PreferredDate, string(m.TimeSlot), filtersRaw,
		string(model.MatchStatusOpen), m.ExpiresAt,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("host %s exhibition %s: %w", m.HostUserID, m.ExhibitionID, apperr.ErrDuplicate)
		}
		return apperr.Unavailable("create match request", err)
	}
	m.Status = model.MatchStatusOpen
	return nil
}

// Get retrieves a request by id.
func (r *MatchRepository) Get(ctx context.Context, id uuid.UUID) (*model.MatchRequest, error) {
	m, err := scanMatch(r.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM match_requests WHERE id = $1`, id))
	if err != nil {
		return nil, storeErr("get match request", "match request", id, err)
	}
	return m, nil
}

// HasOpen reports whether the host already has an open request for the exhibition.
func (r *MatchRepository) HasOpen(ctx context.Context, hostUserID, exhibitionID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM match_requests
		     WHERE host_user_id = $1 AND exhibition_id = $2 AND status = 'open'
		 )`, hostUserID, exhibitionID,
	).Scan(&exists)
	if err != nil {
		return false, apperr.Unavailable("check open match request", err)
	}
	return exists, nil
}

// Transition moves a request from one status to another. matchedUserID is set only
// when moving to matched. Zero affected rows means the request was no longer in
// from, which is reported as a conflict.
func (r *MatchRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.MatchStatus, matchedUserID *string, now time.Time) (*model.MatchRequest, error) {
	var matchedAt *time.Time
	if to == model.MatchStatusMatched {
		matchedAt = &now
	}

	m, err := scanMatch(r.pool.QueryRow(ctx,
		`UPDATE match_requests
		 SET status = $3,
		     matched_user_id = COALESCE($4, matched_user_id),
		     matched_at = COALESCE($5, matched_at),
		     updated_at = $6
		 WHERE id = $1 AND status = $2
		 RETURNING `+matchColumns,
		id, string(from), string(to), matchedUserID, matchedAt, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict("match request %s is not %s", id, from)
		}
		return nil, apperr.Unavailable("transition match request", err)
	}
	return m, nil
}

// ListSweepable returns open requests past their expiry and matched requests whose
// preferred date is before now's date, oldest first.
func (r *MatchRepository) ListSweepable(ctx context.Context, now time.Time, limit int) ([]model.MatchRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+matchColumns+`
		 FROM match_requests
		 WHERE (status = 'open' AND expires_at <= $1)
		    OR (status = 'matched' AND preferred_date < $1::date)
		 ORDER BY updated_at
		 LIMIT $2`, now, limit)
	if err != nil {
		return nil, apperr.Unavailable("list sweepable match requests", err)
	}
	defer rows.Close()

	var out []model.MatchRequest
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// RecordRejection remembers that the host rejected a candidate for this request.
func (r *MatchRepository) RecordRejection(ctx context.Context, requestID uuid.UUID, candidateUserID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO match_rejections (request_id, candidate_user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (request_id, candidate_user_id) DO NOTHING`,
		requestID, candidateUserID)
	return apperr.Unavailable("record match rejection", err)
}

// RejectedUserIDs lists candidates already rejected for the request.
func (r *MatchRepository) RejectedUserIDs(ctx context.Context, requestID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT candidate_user_id FROM match_rejections WHERE request_id = $1`, requestID)
	if err != nil {
		return nil, apperr.Unavailable("list match rejections", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
