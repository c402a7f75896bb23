package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/hanzi/pkg/models"
)

const sentenceColumns = `id, character_id, sentence, sentence_pinyin,
	sentence_english_translation, sentence_hebrew_translation, created_at`

// SentenceRepository handles database operations for example sentences
type SentenceRepository struct {
	store *Store
}

// NewSentenceRepository creates a new repository instance
func NewSentenceRepository(store *Store) *SentenceRepository {
	return &SentenceRepository{store: store}
}

// GetByCharacterID returns the example sentence of a character. When several
// exist the earliest inserted one wins.
func (r *SentenceRepository) GetByCharacterID(ctx context.Context, characterID int64) (*models.Sentence, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	var s models.Sentence
	query := db.Rebind(`SELECT ` + sentenceColumns + ` FROM sentences WHERE character_id = ? ORDER BY id ASC LIMIT 1`)
	if err := db.GetContext(ctx, &s, query, characterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no sentence for character %d", ErrNotFound, characterID)
		}
		return nil, fmt.Errorf("failed to get sentence: %w", err)
	}
	return &s, nil
}

// GetAll returns every sentence ordered by character
func (r *SentenceRepository) GetAll(ctx context.Context) ([]models.Sentence, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	sentences := []models.Sentence{}
	if err := db.SelectContext(ctx, &sentences, `SELECT `+sentenceColumns+` FROM sentences ORDER BY character_id, id`); err != nil {
		return nil, fmt.Errorf("failed to get sentences: %w", err)
	}
	return sentences, nil
}

// Count returns the number of stored sentences
func (r *SentenceRepository) Count(ctx context.Context) (int, error) {
	db, err := r.store.conn()
	if err != nil {
		return 0, err
	}

	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sentences`); err != nil {
		return 0, fmt.Errorf("failed to count sentences: %w", err)
	}
	return n, nil
}
