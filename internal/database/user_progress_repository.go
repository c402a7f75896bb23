package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/hanzi/pkg/models"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// UserProgressRepository handles database operations for user progress.
// Every write refreshes users.viewed_count inside the same transaction.
type UserProgressRepository struct {
	store *Store
}

// NewUserProgressRepository creates a new repository instance
func NewUserProgressRepository(store *Store) *UserProgressRepository {
	return &UserProgressRepository{store: store}
}

type progressChange struct {
	markViewed bool
	completed  *bool
}

// RecordView marks a character as viewed by the user. It reports whether
// this was the first view of that character.
func (r *UserProgressRepository) RecordView(ctx context.Context, userID, characterID int64) (bool, error) {
	var first bool
	err := r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		first, err = r.upsert(ctx, tx, userID, characterID, progressChange{markViewed: true})
		if err != nil {
			return err
		}
		_, err = r.recount(ctx, tx, userID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to record view: %w", err)
	}
	return first, nil
}

// SetCompleted sets the completed flag without touching viewed
func (r *UserProgressRepository) SetCompleted(ctx context.Context, userID, characterID int64, completed bool) error {
	err := r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := r.upsert(ctx, tx, userID, characterID, progressChange{completed: &completed}); err != nil {
			return err
		}
		_, err := r.recount(ctx, tx, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set completed: %w", err)
	}
	return nil
}

// upsert writes the progress row for (user, character). Rows are looked up
// first instead of relying on ON CONFLICT so that databases whose unique
// index could not be built still get exactly one row per pair.
func (r *UserProgressRepository) upsert(ctx context.Context, tx *sqlx.Tx, userID, characterID int64, change progressChange) (bool, error) {
	if err := requireRow(ctx, tx, "users", userID); err != nil {
		return false, err
	}
	if err := requireRow(ctx, tx, "characters", characterID); err != nil {
		return false, err
	}

	var rows []struct {
		ID        int64 `db:"id"`
		Viewed    bool  `db:"viewed"`
		Completed bool  `db:"completed"`
	}
	err := sqlx.SelectContext(ctx, tx, &rows, tx.Rebind(`
		SELECT id, viewed, completed FROM user_progress
		WHERE user_id = ? AND character_id = ?`),
		userID, characterID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to get user progress: %w", err)
	}

	now := r.store.timestamp()

	switch len(rows) {
	case 0:
		completed := change.completed != nil && *change.completed
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO user_progress (user_id, character_id, viewed, completed, last_accessed_at, times_practiced)
			VALUES (?, ?, ?, ?, ?, 1)`),
			userID, characterID, change.markViewed, completed, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return false, fmt.Errorf("%w: concurrent progress write for user %d character %d", ErrConflict, userID, characterID)
			}
			return false, fmt.Errorf("failed to create user progress: %w", err)
		}
		return change.markViewed, nil

	case 1:
		existing := rows[0]
		viewed := existing.Viewed || change.markViewed
		completed := existing.Completed
		if change.completed != nil {
			completed = *change.completed
		}

		_, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE user_progress SET
				viewed = ?,
				completed = ?,
				last_accessed_at = ?,
				times_practiced = times_practiced + 1
			WHERE id = ?`),
			viewed, completed, now, existing.ID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update user progress: %w", err)
		}
		return change.markViewed && !existing.Viewed, nil

	default:
		return false, fmt.Errorf("%w: %d progress rows for user %d character %d",
			ErrConflict, len(rows), userID, characterID)
	}
}

func requireRow(ctx context.Context, tx *sqlx.Tx, tableName string, id int64) error {
	var found int64
	if err := tx.GetContext(ctx, &found, tx.Rebind(`SELECT id FROM `+tableName+` WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s %d", ErrNotFound, tableName, id)
		}
		return fmt.Errorf("failed to look up %s %d: %w", tableName, id, err)
	}
	return nil
}

// recount recomputes viewed_count from user_progress and stores it. It
// returns the value the cache held before.
func (r *UserProgressRepository) recount(ctx context.Context, tx *sqlx.Tx, userID int64) (counts, error) {
	var c counts
	err := tx.GetContext(ctx, &c, tx.Rebind(`
		SELECT u.viewed_count AS cached,
			(SELECT COUNT(DISTINCT p.character_id) FROM user_progress p
				WHERE p.user_id = u.id AND p.viewed = ?) AS actual
		FROM users u WHERE u.id = ?`),
		true, userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, fmt.Errorf("%w: users %d", ErrNotFound, userID)
		}
		return c, fmt.Errorf("failed to count viewed characters: %w", err)
	}

	if c.Cached != c.Actual {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE users SET viewed_count = ? WHERE id = ?`), c.Actual, userID); err != nil {
			return c, fmt.Errorf("failed to update viewed count: %w", err)
		}
	}
	return c, nil
}

type counts struct {
	Cached int `db:"cached"`
	Actual int `db:"actual"`
}

// RefreshViewedCount recomputes and stores the cached viewed count. A cache
// that had drifted is logged as a consistency error and repaired.
func (r *UserProgressRepository) RefreshViewedCount(ctx context.Context, userID int64) (int, error) {
	var c counts
	err := r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		c, err = r.recount(ctx, tx, userID)
		return err
	})
	if err != nil {
		return 0, err
	}

	if c.Cached != c.Actual {
		r.store.log.Warn("repaired viewed count",
			zap.Int64("user_id", userID),
			zap.Int("cached", c.Cached),
			zap.Int("actual", c.Actual),
			zap.Error(ErrConsistency),
		)
	}
	return c.Actual, nil
}

// VerifyViewedCounts audits the viewed count cache of every user and
// returns how many had to be repaired.
func (r *UserProgressRepository) VerifyViewedCounts(ctx context.Context) (int, error) {
	db, err := r.store.conn()
	if err != nil {
		return 0, err
	}

	var drifted []int64
	err = db.SelectContext(ctx, &drifted, db.Rebind(`
		SELECT u.id FROM users u
		WHERE u.viewed_count <> (
			SELECT COUNT(DISTINCT p.character_id) FROM user_progress p
			WHERE p.user_id = u.id AND p.viewed = ?)
		ORDER BY u.id`),
		true,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to audit viewed counts: %w", err)
	}

	for _, id := range drifted {
		if _, err := r.RefreshViewedCount(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(drifted), nil
}

// ViewedCharacters returns the characters the user has viewed, most
// recently accessed first.
func (r *UserProgressRepository) ViewedCharacters(ctx context.Context, userID int64) ([]models.ViewedCharacter, error) {
	viewed := []models.ViewedCharacter{}
	err := r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireRow(ctx, tx, "users", userID); err != nil {
			return err
		}
		return tx.SelectContext(ctx, &viewed, tx.Rebind(`
			SELECT character_id, last_accessed_at, times_practiced FROM user_progress
			WHERE user_id = ? AND viewed = ?
			ORDER BY last_accessed_at DESC, id DESC`),
			userID, true,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get viewed characters: %w", err)
	}
	return viewed, nil
}

// ViewedCharacterIDs returns the ids of ViewedCharacters in the same order
func (r *UserProgressRepository) ViewedCharacterIDs(ctx context.Context, userID int64) ([]int64, error) {
	viewed, err := r.ViewedCharacters(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(viewed))
	for i, v := range viewed {
		ids[i] = v.CharacterID
	}
	return ids, nil
}

// CompletedCharacters returns the ids of characters the user marked completed
func (r *UserProgressRepository) CompletedCharacters(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireRow(ctx, tx, "users", userID); err != nil {
			return err
		}
		return tx.SelectContext(ctx, &ids, tx.Rebind(`
			SELECT character_id FROM user_progress
			WHERE user_id = ? AND completed = ?
			ORDER BY character_id`),
			userID, true,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get completed characters: %w", err)
	}
	return ids, nil
}

// GetProgress returns the progress row for a user and character
func (r *UserProgressRepository) GetProgress(ctx context.Context, userID, characterID int64) (*models.UserProgress, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	var progress models.UserProgress
	err = db.GetContext(ctx, &progress, db.Rebind(`
		SELECT id, user_id, character_id, viewed, completed, last_accessed_at, times_practiced
		FROM user_progress
		WHERE user_id = ? AND character_id = ?
		ORDER BY id LIMIT 1`),
		userID, characterID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no progress for user %d character %d", ErrNotFound, userID, characterID)
		}
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	return &progress, nil
}

// ResetProgress deletes all progress of the user and zeroes the cache
func (r *UserProgressRepository) ResetProgress(ctx context.Context, userID int64) error {
	err := r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireRow(ctx, tx, "users", userID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM user_progress WHERE user_id = ?`), userID); err != nil {
			return fmt.Errorf("failed to delete user progress: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE users SET viewed_count = 0 WHERE id = ?`), userID); err != nil {
			return fmt.Errorf("failed to reset viewed count: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	return nil
}
