package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/hanzi/pkg/models"
	"github.com/jmoiron/sqlx"
)

const characterColumns = `id, glyph, pinyin, english_translation, hebrew_translation,
	sentence_length, appearance_frequency, created_at`

// CharacterRepository handles database operations for characters
type CharacterRepository struct {
	store *Store
}

// NewCharacterRepository creates a new repository instance
func NewCharacterRepository(store *Store) *CharacterRepository {
	return &CharacterRepository{store: store}
}

// GetAll returns all characters, most frequent first
func (r *CharacterRepository) GetAll(ctx context.Context) ([]models.Character, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	characters := []models.Character{}
	query := `SELECT ` + characterColumns + ` FROM characters ORDER BY appearance_frequency DESC, id ASC`
	if err := db.SelectContext(ctx, &characters, query); err != nil {
		return nil, fmt.Errorf("failed to get characters: %w", err)
	}
	return characters, nil
}

// GetByID returns a character by id
func (r *CharacterRepository) GetByID(ctx context.Context, id int64) (*models.Character, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	var c models.Character
	query := db.Rebind(`SELECT ` + characterColumns + ` FROM characters WHERE id = ?`)
	if err := db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: character %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get character by id: %w", err)
	}
	return &c, nil
}

// GetByIDs returns the characters with the given ids in the order given.
// Unknown ids are skipped.
func (r *CharacterRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Character, error) {
	if len(ids) == 0 {
		return []models.Character{}, nil
	}

	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	query, args, err := sqlx.In(`SELECT `+characterColumns+` FROM characters WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build character query: %w", err)
	}

	var found []models.Character
	if err := db.SelectContext(ctx, &found, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get characters by ids: %w", err)
	}

	byID := make(map[int64]models.Character, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	characters := make([]models.Character, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			characters = append(characters, c)
		}
	}
	return characters, nil
}

// Count returns the number of stored characters
func (r *CharacterRepository) Count(ctx context.Context) (int, error) {
	db, err := r.store.conn()
	if err != nil {
		return 0, err
	}

	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM characters`); err != nil {
		return 0, fmt.Errorf("failed to count characters: %w", err)
	}
	return n, nil
}

// CreateWithSentence inserts a character under its explicit id together with
// its example sentence. Both rows are written or neither is.
func (r *CharacterRepository) CreateWithSentence(ctx context.Context, c *models.Character, s *models.Sentence) error {
	return r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := r.store.timestamp()

		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO characters (id, glyph, pinyin, english_translation, hebrew_translation,
				sentence_length, appearance_frequency, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			c.ID, c.Glyph, c.Pinyin, c.EnglishTranslation, c.HebrewTranslation,
			c.SentenceLength, c.AppearanceFrequency, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: character %d already exists", ErrConflict, c.ID)
			}
			return fmt.Errorf("failed to create character: %w", err)
		}
		c.CreatedAt = now

		if s == nil {
			return nil
		}

		s.CharacterID = c.ID
		err = tx.QueryRowxContext(ctx, tx.Rebind(`
			INSERT INTO sentences (character_id, sentence, sentence_pinyin,
				sentence_english_translation, sentence_hebrew_translation, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`),
			s.CharacterID, s.Text, s.Pinyin, s.EnglishTranslation, s.HebrewTranslation, now,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to create sentence: %w", err)
		}
		s.CreatedAt = now
		return nil
	})
}

// ClearAll removes all content together with every user's progress and
// resets cached viewed counts, in a single transaction.
func (r *CharacterRepository) ClearAll(ctx context.Context) error {
	return r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM user_progress`,
			`DELETE FROM sentences`,
			`DELETE FROM characters`,
			`UPDATE users SET viewed_count = 0`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to clear content: %w", err)
			}
		}
		return nil
	})
}
