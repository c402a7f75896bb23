package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/hanzi/pkg/models"
)

// QuizResultRepository handles database operations for finished quizzes
type QuizResultRepository struct {
	store *Store
}

// NewQuizResultRepository creates a new repository instance
func NewQuizResultRepository(store *Store) *QuizResultRepository {
	return &QuizResultRepository{store: store}
}

// Create inserts a quiz result
func (r *QuizResultRepository) Create(ctx context.Context, result *models.QuizResult) error {
	db, err := r.store.conn()
	if err != nil {
		return err
	}

	if result.FinishedAt.IsZero() {
		result.FinishedAt = r.store.timestamp()
	}
	if result.StartedAt.IsZero() {
		result.StartedAt = result.FinishedAt
	}

	err = db.QueryRowxContext(ctx, db.Rebind(`
		INSERT INTO quiz_results (user_id, kind, total_questions, correct_answers, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		result.UserID, result.Kind, result.TotalQuestions, result.CorrectAnswers,
		result.StartedAt.UTC(), result.FinishedAt.UTC(),
	).Scan(&result.ID)
	if err != nil {
		return fmt.Errorf("failed to create quiz result: %w", err)
	}
	return nil
}

// GetByUserID returns all quiz results of a user, newest first
func (r *QuizResultRepository) GetByUserID(ctx context.Context, userID int64) ([]models.QuizResult, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	results := []models.QuizResult{}
	err = db.SelectContext(ctx, &results, db.Rebind(`
		SELECT id, user_id, kind, total_questions, correct_answers, started_at, finished_at
		FROM quiz_results
		WHERE user_id = ?
		ORDER BY finished_at DESC, id DESC`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz results: %w", err)
	}
	return results, nil
}

// GetUserStatsByPeriod aggregates the quizzes a user finished in [start, end]
func (r *QuizResultRepository) GetUserStatsByPeriod(ctx context.Context, userID int64, start, end time.Time) (*models.QuizStats, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	var stats models.QuizStats
	err = db.GetContext(ctx, &stats, db.Rebind(`
		SELECT
			COUNT(*) AS total_quizzes,
			COALESCE(SUM(total_questions), 0) AS total_questions,
			COALESCE(SUM(correct_answers), 0) AS total_correct
		FROM quiz_results
		WHERE user_id = ? AND finished_at BETWEEN ? AND ?`),
		userID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz stats: %w", err)
	}

	stats.AverageScore = completionPercentage(stats.TotalCorrect, stats.TotalQuestions)
	return &stats, nil
}
