package database

import (
	"context"
	"fmt"
	"math"

	"github.com/example/hanzi/pkg/models"
)

// StatisticsRepository answers aggregate progress queries
type StatisticsRepository struct {
	store *Store
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(store *Store) *StatisticsRepository {
	return &StatisticsRepository{store: store}
}

// completionPercentage returns part/total as a percentage rounded to two
// decimals, or 0 when there is nothing to complete.
func completionPercentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)*100/float64(total)*100) / 100
}

// ListWithProgress returns every user with their viewed count, the number of
// characters available and the resulting completion percentage.
func (r *StatisticsRepository) ListWithProgress(ctx context.Context) ([]models.UserSummary, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	users := []models.UserSummary{}
	err = db.SelectContext(ctx, &users, `
		SELECT u.id, u.username, u.is_admin, u.created_at, u.last_login_at, u.viewed_count,
			(SELECT COUNT(*) FROM characters) AS total_count
		FROM users u
		ORDER BY u.created_at DESC, u.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with progress: %w", err)
	}

	for i := range users {
		users[i].CompletionPercentage = completionPercentage(users[i].ViewedCount, users[i].TotalCount)
	}
	return users, nil
}

// ProgressSummary aggregates the progress of a single user
func (r *StatisticsRepository) ProgressSummary(ctx context.Context, userID int64) (*models.ProgressSummary, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	var exists int
	if err := db.GetContext(ctx, &exists, db.Rebind(`SELECT COUNT(*) FROM users WHERE id = ?`), userID); err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: users %d", ErrNotFound, userID)
	}

	var summary models.ProgressSummary
	err = db.GetContext(ctx, &summary, db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM characters) AS total_characters,
			COUNT(DISTINCT CASE WHEN viewed = ? THEN character_id END) AS viewed_characters,
			COUNT(DISTINCT CASE WHEN completed = ? THEN character_id END) AS completed_characters,
			COALESCE(SUM(times_practiced), 0) AS total_practices
		FROM user_progress
		WHERE user_id = ?`),
		true, true, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress summary: %w", err)
	}

	summary.CompletionPercentage = completionPercentage(summary.ViewedCharacters, summary.TotalCharacters)
	return &summary, nil
}
