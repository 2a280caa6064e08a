package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/model"
)

// historyWindow bounds how many recent interactions feed personalization.
const historyWindow = 500

// HistoryRepository reads a user's viewing and liking history.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// History folds the user's most recent interactions into viewed items, liked
// creators and liked style tags.
func (r *HistoryRepository) History(ctx context.Context, userID string) (*model.PersonalizationHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT item_id, action, creator_id, style_tags
		 FROM user_interactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, historyWindow)
	if err != nil {
		return nil, apperr.Unavailable("load history", err)
	}
	defer rows.Close()

	h := model.NewPersonalizationHistory()
	for rows.Next() {
		var (
			itemID, action string
			creatorID      *string
			styles         []string
		)
		if err := rows.Scan(&itemID, &action, &creatorID, &styles); err != nil {
			return nil, err
		}

		h.ViewedItems[itemID] = struct{}{}
		if action != "like" {
			continue
		}
		if creatorID != nil && *creatorID != "" {
			h.LikedCreators[*creatorID] = struct{}{}
		}
		for _, s := range styles {
			h.LikedStyles[s] = struct{}{}
		}
	}
	return h, rows.Err()
}
